package config

import (
	"os"
	"path"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`
}

type WebConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	CorsOrigins []string `yaml:"cors_origins"`
	// JwtSecret enables bearer auth on /api when set.
	JwtSecret string `yaml:"jwt_secret"`
}

type DBConfig struct {
	Type     string `yaml:"type"` // postgres or sqlite
	URL      string `yaml:"url"`  // full DSN, takes precedence over host/port/name
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	SSLMode  string `yaml:"sslmode"`
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
	Debug    bool   `yaml:"debug"`
}

type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

type WhatsAppConfig struct {
	PhoneNumber      string        `yaml:"phone_number"`
	SessionDB        string        `yaml:"session_db"`
	ReconnectBackoff time.Duration `yaml:"reconnect_backoff"`
	PairingWait      time.Duration `yaml:"pairing_wait"`
	ClientName       string        `yaml:"client_name"`
	EventWorkers     int           `yaml:"event_workers"`
}

type VerificationConfig struct {
	ApprovalTTL          time.Duration `yaml:"approval_ttl"`
	OtpRetention         time.Duration `yaml:"otp_retention"`
	OtpTemplate          string        `yaml:"otp_template"`
	ApprovalTemplate     string        `yaml:"approval_template"`
	ApprovalReplyMessage string        `yaml:"approval_reply_message"`
}

type BroadcastConfig struct {
	MinDelay         time.Duration `yaml:"min_delay"`
	MaxDelay         time.Duration `yaml:"max_delay"`
	LogRetentionDays int           `yaml:"log_retention_days"`
}

type AppConfig struct {
	System       SysConfig          `yaml:"system"`
	Web          WebConfig          `yaml:"web"`
	Database     DBConfig           `yaml:"database"`
	Logger       LogConfig          `yaml:"logger"`
	WhatsApp     WhatsAppConfig     `yaml:"whatsapp"`
	Verification VerificationConfig `yaml:"verification"`
	Broadcast    BroadcastConfig    `yaml:"broadcast"`
}

func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return path.Join(c.System.Workdir, "data")
}

// SessionDBPath resolves the whatsmeow credential store file against the data dir.
func (c *AppConfig) SessionDBPath() string {
	if path.IsAbs(c.WhatsApp.SessionDB) {
		return c.WhatsApp.SessionDB
	}
	return path.Join(c.GetDataDir(), c.WhatsApp.SessionDB)
}

func (c *AppConfig) initDirs() {
	_ = os.MkdirAll(c.GetLogDir(), 0o755)
	_ = os.MkdirAll(c.GetDataDir(), 0o755)
}

const (
	DefaultOtpTemplate      = "Kode OTP Anda: {code}"
	DefaultApprovalTemplate = "Untuk konfirmasi, balas \"{code}\" pada chat ini.\n\nKode ini berlaku selama {ttl}."
	DefaultApprovalReply    = "✅ Kode approval diterima, terima kasih."
)

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "WAGateway",
		Location: "Asia/Jakarta",
		Workdir:  "/var/wagateway",
		Debug:    false,
	},
	Web: WebConfig{
		Host:        "0.0.0.0",
		Port:        3000,
		CorsOrigins: []string{"*"},
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "postgres",
		User:     "postgres",
		SSLMode:  "require",
		MaxConn:  50,
		IdleConn: 10,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/wagateway/logs/wagateway.log",
	},
	WhatsApp: WhatsAppConfig{
		SessionDB:        "whatsmeow.db",
		ReconnectBackoff: 3 * time.Second,
		PairingWait:      3 * time.Second,
		ClientName:       "Chrome (Linux)",
		EventWorkers:     16,
	},
	Verification: VerificationConfig{
		ApprovalTTL:          10 * time.Minute,
		OtpRetention:         24 * time.Hour,
		OtpTemplate:          DefaultOtpTemplate,
		ApprovalTemplate:     DefaultApprovalTemplate,
		ApprovalReplyMessage: DefaultApprovalReply,
	},
	Broadcast: BroadcastConfig{
		MinDelay:         3000 * time.Millisecond,
		MaxDelay:         5000 * time.Millisecond,
		LogRetentionDays: 30,
	},
}

// Env is the variable source used for overrides.
type Env interface {
	Getenv(key string) string
}

type osEnv struct{}

func (osEnv) Getenv(key string) string { return os.Getenv(key) }

// LoadConfig reads cfile (when present), loads .env and applies environment overrides.
func LoadConfig(cfile string) (*AppConfig, error) {
	_ = godotenv.Load()
	cfg := *DefaultAppConfig
	if cfile == "" {
		cfile = "wagateway.yml"
	}
	if data, err := os.ReadFile(cfile); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", cfile)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "read config %s", cfile)
	}
	if err := ApplyEnv(&cfg, osEnv{}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.initDirs()
	return &cfg, nil
}

// ApplyEnv overrides cfg with values found in env.
func ApplyEnv(cfg *AppConfig, env Env) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(env.Getenv(key)); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		if v := strings.TrimSpace(env.Getenv(key)); v != "" {
			n, err := cast.ToIntE(v)
			if err != nil {
				return errors.Wrapf(err, "invalid %s", key)
			}
			*dst = n
		}
		return nil
	}
	boolean := func(key string, dst *bool) error {
		if v := strings.TrimSpace(env.Getenv(key)); v != "" {
			b, err := cast.ToBoolE(v)
			if err != nil {
				return errors.Wrapf(err, "invalid %s", key)
			}
			*dst = b
		}
		return nil
	}
	dur := func(key string, dst *time.Duration) error {
		if v := strings.TrimSpace(env.Getenv(key)); v != "" {
			d, err := cast.ToDurationE(v)
			if err != nil {
				return errors.Wrapf(err, "invalid %s", key)
			}
			*dst = d
		}
		return nil
	}

	str("WAGATEWAY_WORKDIR", &cfg.System.Workdir)
	str("WAGATEWAY_LOCATION", &cfg.System.Location)
	str("WAGATEWAY_WEB_HOST", &cfg.Web.Host)
	str("WAGATEWAY_JWT_SECRET", &cfg.Web.JwtSecret)
	str("WAGATEWAY_DB_TYPE", &cfg.Database.Type)
	str("SUPABASE_DB_URL", &cfg.Database.URL)
	str("DATABASE_URL", &cfg.Database.URL)
	str("WAGATEWAY_DB_HOST", &cfg.Database.Host)
	str("WAGATEWAY_DB_NAME", &cfg.Database.Name)
	str("WAGATEWAY_DB_USER", &cfg.Database.User)
	str("WAGATEWAY_DB_PWD", &cfg.Database.Passwd)
	str("WAGATEWAY_LOGGER_MODE", &cfg.Logger.Mode)
	str("WAGATEWAY_LOGGER_FILENAME", &cfg.Logger.Filename)
	str("WA_PHONE_NUMBER", &cfg.WhatsApp.PhoneNumber)
	str("WA_SESSION_DB", &cfg.WhatsApp.SessionDB)

	for _, f := range []func() error{
		func() error { return boolean("WAGATEWAY_DEBUG", &cfg.System.Debug) },
		func() error { return num("PORT", &cfg.Web.Port) },
		func() error { return num("WAGATEWAY_DB_PORT", &cfg.Database.Port) },
		func() error { return boolean("WAGATEWAY_DB_DEBUG", &cfg.Database.Debug) },
		func() error { return boolean("WAGATEWAY_LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable) },
		func() error { return dur("WA_RECONNECT_BACKOFF", &cfg.WhatsApp.ReconnectBackoff) },
		func() error { return dur("APPROVAL_TTL", &cfg.Verification.ApprovalTTL) },
		func() error { return dur("BROADCAST_MIN_DELAY", &cfg.Broadcast.MinDelay) },
		func() error { return dur("BROADCAST_MAX_DELAY", &cfg.Broadcast.MaxDelay) },
	} {
		if err := f(); err != nil {
			return err
		}
	}
	return nil
}

func (c *AppConfig) Validate() error {
	if c.Web.Port <= 0 || c.Web.Port > 65535 {
		return errors.Errorf("invalid web port %d", c.Web.Port)
	}
	switch c.Database.Type {
	case "postgres", "sqlite":
	default:
		return errors.Errorf("unsupported database type %q", c.Database.Type)
	}
	if c.Broadcast.MinDelay < 0 || c.Broadcast.MaxDelay < c.Broadcast.MinDelay {
		return errors.Errorf("invalid broadcast delay range [%s, %s]", c.Broadcast.MinDelay, c.Broadcast.MaxDelay)
	}
	if c.Verification.ApprovalTTL <= 0 {
		return errors.New("approval_ttl must be positive")
	}
	return nil
}
