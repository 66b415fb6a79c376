package main

import (
	"log"

	"agri-backend/internal/config"
	"agri-backend/internal/database"
	"agri-backend/internal/logger"
	"agri-backend/internal/server"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	for _, w := range cfg.Warnings {
		zlog.Warn(w)
	}

	db, err := database.Open(cfg, zlog)
	if err != nil {
		zlog.Fatal("database", zap.Error(err))
	}

	app := server.New(cfg, db, zlog)

	zlog.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		zlog.Fatal("listen", zap.Error(err))
	}
}
