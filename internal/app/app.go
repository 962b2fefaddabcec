package app

import (
	"context"
	"os"
	"runtime/debug"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/asaskevich/EventBus"
	"github.com/bjo163/wagateway/config"
	"github.com/bjo163/wagateway/internal/broadcast"
	"github.com/bjo163/wagateway/internal/domain"
	"github.com/bjo163/wagateway/internal/verification"
	"github.com/bjo163/wagateway/internal/whatsapp"
	"github.com/bjo163/wagateway/pkg/common"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"
)

type Application struct {
	appConfig    *config.AppConfig
	gormDB       *gorm.DB
	sched        *cron.Cron
	bus          EventBus.Bus
	session      *whatsapp.Session
	verification *verification.Service
	broadcaster  *broadcast.Dispatcher

	storeMu       sync.Mutex
	deviceStore   *whatsapp.DeviceStore
	clientFactory whatsapp.ClientFactory
}

// Ensure Application implements all interfaces
var (
	_ DBProvider           = (*Application)(nil)
	_ ConfigProvider       = (*Application)(nil)
	_ SchedulerProvider    = (*Application)(nil)
	_ SessionProvider      = (*Application)(nil)
	_ VerificationProvider = (*Application)(nil)
	_ BroadcastProvider    = (*Application)(nil)
	_ AppContext           = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	a := &Application{appConfig: appConfig}
	a.clientFactory = a.newWhatsAppClient
	return a
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

// OverrideDB replaces the application's database handle (used in tests).
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
}

// OverrideClientFactory replaces how WhatsApp clients are built (used in tests).
func (a *Application) OverrideClientFactory(f whatsapp.ClientFactory) {
	a.clientFactory = f
}

func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

func (a *Application) Session() whatsapp.Controller {
	return a.session
}

func (a *Application) Verification() *verification.Service {
	return a.verification
}

func (a *Application) Broadcaster() *broadcast.Dispatcher {
	return a.broadcaster
}

func (a *Application) Init(cfg *config.AppConfig) {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	initLogger(cfg)
	common.SetNodeID(1)

	// Initialize database connection
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	a.gormDB = getDatabase(cfg.Database, cfg.System.Workdir)
	zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)

	if err := a.MigrateDB(false); err != nil {
		zap.S().Errorf("database migration failed: %v", err)
	}
	a.checkDevice()

	if err := a.initServices(); err != nil {
		zap.S().Fatalf("init services failed: %v", err)
	}
	a.initJob()
}

func initLogger(cfg *config.AppConfig) {
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	var logger *zap.Logger
	if cfg.Logger.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller())
	} else {
		var err error
		logger, err = zapConfig.Build(zap.AddCaller())
		if err != nil {
			panic(err)
		}
	}

	zap.ReplaceGlobals(logger)
}

// initServices wires the session, the verification and broadcast services
// and the event bus subscribers between them.
func (a *Application) initServices() error {
	cfg := a.appConfig
	a.bus = EventBus.New()

	session, err := whatsapp.NewSession(whatsapp.Options{
		PhoneNumber:      cfg.WhatsApp.PhoneNumber,
		ReconnectBackoff: cfg.WhatsApp.ReconnectBackoff,
		PairingWait:      cfg.WhatsApp.PairingWait,
		EventWorkers:     cfg.WhatsApp.EventWorkers,
	}, a.clientFactory, a.bus)
	if err != nil {
		return err
	}
	a.session = session

	a.verification = verification.NewService(session,
		verification.NewGormOtpRepository(a.gormDB),
		verification.NewGormApprovalRepository(a.gormDB),
		verification.Options{
			ApprovalTTL:      cfg.Verification.ApprovalTTL,
			OtpTemplate:      cfg.Verification.OtpTemplate,
			ApprovalTemplate: cfg.Verification.ApprovalTemplate,
			ApprovalReply:    cfg.Verification.ApprovalReplyMessage,
		})

	a.broadcaster = broadcast.NewDispatcher(session,
		broadcast.NewGormLogRepository(a.gormDB),
		broadcast.Options{MinDelay: cfg.Broadcast.MinDelay, MaxDelay: cfg.Broadcast.MaxDelay})

	return a.subscribe()
}

func (a *Application) subscribe() error {
	a.session.OnMessage(logInbound)
	a.session.OnMessage(a.verification.HandleInbound)
	return a.bus.SubscribeAsync(whatsapp.TopicState, a.recordDeviceState, true)
}

// newWhatsAppClient opens the credential store on first use so a broken
// session file only fails session start, not the whole process.
func (a *Application) newWhatsAppClient(ctx context.Context) (whatsapp.Client, error) {
	a.storeMu.Lock()
	defer a.storeMu.Unlock()
	if a.deviceStore == nil {
		store, err := whatsapp.OpenDeviceStore(ctx, a.appConfig.SessionDBPath(),
			a.appConfig.WhatsApp.ClientName, whatsapp.NewLogger("whatsmeow"))
		if err != nil {
			return nil, err
		}
		a.deviceStore = store
	}
	return a.deviceStore.NewClient(ctx)
}

// StartSession connects WhatsApp in the background. Failures are logged and
// retried by the session itself.
func (a *Application) StartSession(ctx context.Context) {
	go func() {
		res, err := a.session.Start(ctx, "")
		if err != nil {
			zap.L().Error("whatsapp: session start failed", zap.Error(err))
			return
		}
		if res.PairingCode != "" {
			zap.L().Info("whatsapp: enter this pairing code on your phone",
				zap.String("phone", res.PhoneNumber), zap.String("code", res.PairingCode))
		}
	}()
}

func (a *Application) MigrateDB(track bool) (err error) {
	defer func() {
		if err1 := recover(); err1 != nil {
			if os.Getenv("GO_DEGUB_TRACE") != "" {
				debug.PrintStack()
			}
			err2, ok := err1.(error)
			if ok {
				err = err2
				zap.S().Error(err2.Error())
			}
		}
	}()
	if track {
		if err := a.gormDB.Debug().Migrator().AutoMigrate(domain.Tables...); err != nil {
			zap.S().Error(err)
		}
	} else {
		if err := a.gormDB.Migrator().AutoMigrate(domain.Tables...); err != nil {
			zap.S().Error(err)
		}
	}
	return nil
}

func (a *Application) InitDb() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
	err := a.gormDB.Migrator().AutoMigrate(domain.Tables...)
	if err != nil {
		zap.S().Error(err)
	}
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		a.sched.Stop()
	}
	if a.broadcaster != nil {
		a.broadcaster.Close()
	}
	if a.session != nil {
		a.session.Close()
	}
	if a.bus != nil {
		a.bus.WaitAsync()
	}
	if a.gormDB != nil {
		if sqlDB, err := a.gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = zap.L().Sync()
}
