package app

import (
	"github.com/bjo163/wagateway/config"
	"github.com/bjo163/wagateway/internal/broadcast"
	"github.com/bjo163/wagateway/internal/verification"
	"github.com/bjo163/wagateway/internal/whatsapp"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// SessionProvider provides the WhatsApp connection session
type SessionProvider interface {
	Session() whatsapp.Controller
}

// VerificationProvider provides OTP and approval code workflows
type VerificationProvider interface {
	Verification() *verification.Service
}

// BroadcastProvider provides the broadcast dispatcher
type BroadcastProvider interface {
	Broadcaster() *broadcast.Dispatcher
}

// AppContext combines all provider interfaces for full application context
// Handlers should depend on specific providers or this combined interface
type AppContext interface {
	DBProvider
	ConfigProvider
	SchedulerProvider
	SessionProvider
	VerificationProvider
	BroadcastProvider
}
