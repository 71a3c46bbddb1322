package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nickheyer/madproxy/internal/config"
	"github.com/nickheyer/madproxy/internal/controller"
	"github.com/nickheyer/madproxy/internal/routing"
	"github.com/nickheyer/madproxy/internal/server"
	"github.com/nickheyer/madproxy/pkg/logger"
)

const banner = `
 __  __           _ ____
|  \/  | __ _  __| |  _ \ _ __ _____  ___   _
| |\/| |/ _` + "`" + ` |/ _` + "`" + ` | |_) | '__/ _ \ \/ / | | |
| |  | | (_| | (_| |  __/| | | (_) >  <| |_| |
|_|  |_|\__,_|\__,_|_|   |_|  \___/_/\_\\__, |
                                        |___/ `

func main() {
	var configPath = flag.String("config", ".", "Directory containing config.yml")
	flag.Parse()

	fmt.Println(banner)

	bootstrapLog := logger.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootstrapLog.Fatal("failed to load configuration: %v", err)
	}

	log := logger.NewWithConfig(&logger.Config{
		Enabled:    cfg.Logging.Enabled,
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
	})
	defer log.Close()

	wake := controller.New(cfg.PanelLink, cfg.APIKey, log)

	var table *routing.Table
	if cfg.Mode() == config.ModeHostname {
		table, err = routing.Load(cfg.RoutingTablePath)
		if err != nil {
			log.Fatal("failed to load routing table: %v", err)
		}
	}

	acceptors, err := server.BuildAcceptors(cfg, table, wake, log)
	if err != nil {
		log.Fatal("failed to bind listeners: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, acc := range acceptors {
		acc := acc
		log.Info("listening on %s (mode=%s)", acc.Addr(), cfg.Mode())
		go acc.Serve(ctx)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	cancel()
	for _, acc := range acceptors {
		acc.Close()
	}
}
