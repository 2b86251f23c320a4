package main

import (
	"context"
	"net/http"
	"time"

	"police-dispatch-system/pkg/config"
	"police-dispatch-system/pkg/database"
	"police-dispatch-system/pkg/middleware"
	"police-dispatch-system/services/auth-service/models"

	"github.com/redis/go-redis/v9"
)

func main() {
	logger := middleware.SetupLogging("auth-service")
	cfg := config.Load("8081", "dispatch_db")

	db, err := database.ConnectPostgres(cfg.PostgresDSN())
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	logger.Info("Running auto migration")
	if err := db.AutoMigrate(&models.User{}); err != nil {
		logger.WithError(err).Fatal("Migration failed")
	}

	srv := &server{
		db:          db,
		secret:      []byte(cfg.JWTSecret),
		loginLimit:  cfg.LoginLimit,
		loginWindow: time.Minute,
		trustedHops: cfg.TrustedProxyHops,
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("Redis unavailable, login rate limiting disabled")
	} else {
		srv.limiter = rdb
		logger.WithField("limit", cfg.LoginLimit).Info("Login rate limiting enabled")
	}
	cancel()

	middleware.RegisterMetrics(loginsTotal)

	logger.WithField("addr", cfg.Addr()).Info("Auth service running")
	if err := http.ListenAndServe(cfg.Addr(), srv.routes()); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
}
