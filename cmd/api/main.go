// cmd/api/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/electrostore/ecommerce-backend/internal/config"
	"github.com/electrostore/ecommerce-backend/internal/domain/payment"
	"github.com/electrostore/ecommerce-backend/internal/infrastructure/database/postgres"
	"github.com/electrostore/ecommerce-backend/internal/infrastructure/database/redis"
	"github.com/electrostore/ecommerce-backend/internal/interfaces/http"
	"github.com/electrostore/ecommerce-backend/internal/pkg/auth"
	"github.com/electrostore/ecommerce-backend/internal/pkg/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	log := logger.New(cfg)
	log.WithFields(logrus.Fields{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Info("starting")

	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	redisClient, err := redis.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to Redis")
	}
	defer redisClient.Close()

	migration := postgres.NewMigration(db.GetDB(), log)
	if err := migration.RunAutoMigrations(); err != nil {
		log.WithError(err).Fatal("database migration failed")
	}
	if err := migration.CreateIndexes(); err != nil {
		log.WithError(err).Warn("index creation incomplete")
	}

	if cfg.IsDevelopment() {
		if err := migration.SeedInitialData(cfg.Seed, auth.NewPasswordManager(cfg)); err != nil {
			log.WithError(err).Warn("data seeding failed")
		}
	}

	if cfg.MercadoPago.AccessToken == "" {
		log.Warn("MERCADOPAGO_ACCESS_TOKEN is empty, provider calls will be rejected")
	}
	provider := payment.NewClient(cfg.MercadoPago, log)

	server := http.NewServer(cfg, db, redisClient, provider, log)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.WithError(err).Error("HTTP server did not shut down cleanly")
	}

	log.Info("server shutdown completed")
}
