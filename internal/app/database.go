package app

import (
	"fmt"
	"path"
	"time"

	"github.com/bjo163/wagateway/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// getDatabase opens the application database. Supabase is reached through
// its Postgres connection string.
func getDatabase(cfg config.DBConfig, workdir string) *gorm.DB {
	gcfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	if cfg.Debug {
		gcfg.Logger = logger.Default.LogMode(logger.Info)
	}

	var dialector gorm.Dialector
	switch cfg.Type {
	case "sqlite":
		name := cfg.Name
		if name == "" {
			name = "wagateway.db"
		}
		if !path.IsAbs(name) {
			name = path.Join(workdir, "data", name)
		}
		dialector = sqlite.Open(name + "?_foreign_keys=on&_busy_timeout=5000")
	default:
		dialector = postgres.New(postgres.Config{DSN: postgresDSN(cfg)})
	}

	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		zap.S().Fatalf("database connect failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		zap.S().Fatalf("database handle error: %v", err)
	}
	if cfg.Type == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxConn)
		sqlDB.SetMaxIdleConns(cfg.IdleConn)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}
	return db
}

func postgresDSN(cfg config.DBConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.Port, cfg.User, cfg.Passwd, cfg.Name, sslmode)
}
