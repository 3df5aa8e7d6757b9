package main

import (
	"context"
	"log"
	"log/slog"
	"net"
	"path/filepath"

	"baraholka/internal/config"
	"baraholka/internal/metrics"
	"baraholka/internal/repository/cache"
	"baraholka/internal/repository/database"
	"baraholka/internal/server"
	"baraholka/internal/service"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		return
	}

	if !cfg.Auth.Strict {
		slog.Warn("AUTH_STRICT is disabled, unsigned identities will be accepted")
	}

	cache.NewRedisClient(net.JoinHostPort(cfg.Redis.Host, cfg.Redis.Port))
	slog.Info("Redis inited")

	if err := database.NewPostgresClient(context.Background(), cfg.Database.DSN()); err != nil {
		log.Fatal(err)
	}
	slog.Info("Database inited")

	if err := goose.SetDialect("postgres"); err != nil {
		slog.Error("Failed to set dialect (migrations)", "error", err)
		return
	}

	migrationsPath := filepath.Join("internal", "repository", "database", "migrations")
	if err := goose.Up(database.Client().DB, migrationsPath); err != nil {
		slog.Error("Failed to migrate up", "error", err)
		return
	}
	slog.Info("Migrations completed")

	metrics.Register()

	go service.GetHub().Run()

	srv := server.NewServer(cfg)
	srv.Run(":" + cfg.App.Port)
}
