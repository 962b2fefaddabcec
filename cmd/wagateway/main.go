package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bjo163/wagateway/config"
	_ "github.com/bjo163/wagateway/docs"
	"github.com/bjo163/wagateway/internal/adminapi"
	"github.com/bjo163/wagateway/internal/app"
	"github.com/bjo163/wagateway/internal/webserver"
	"go.uber.org/zap"
)

var (
	version = "dev"

	h        = flag.Bool("h", false, "help usage")
	showVer  = flag.Bool("v", false, "show version")
	conffile = flag.String("c", "", "config yaml file")
	initdb   = flag.Bool("initdb", false, "drop and recreate all tables, then exit")
)

// @title WhatsApp API
// @version 1.0.0
// @description API untuk mengelola WhatsApp
// @BasePath /
// @securityDefinitions.apikey bearerAuth
// @in header
// @name Authorization
func main() {
	flag.Parse()

	if *h {
		flag.Usage()
		return
	}
	if *showVer {
		fmt.Println(version)
		return
	}

	cfg, err := config.LoadConfig(*conffile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initdb {
		application.InitDb()
		zap.S().Info("database initialized")
		return
	}

	adminapi.Init()
	server := webserver.NewAdminServer(cfg, application)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := server.Start(); err != nil {
			zap.S().Errorf("web server stopped: %v", err)
			stop()
		}
	}()
	zap.S().Infof("Swagger docs: http://%s:%d/api-docs/index.html", cfg.Web.Host, cfg.Web.Port)

	application.StartSession(context.Background())

	<-ctx.Done()
	zap.S().Info("shutting down")
	// let in-flight broadcasts return before the server drains
	application.Broadcaster().Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zap.S().Errorf("web server shutdown: %v", err)
	}
}
