package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"police-dispatch-system/pkg/config"
	"police-dispatch-system/pkg/database"
	"police-dispatch-system/pkg/middleware"
	"police-dispatch-system/pkg/queue"
)

func main() {
	logger := middleware.SetupLogging("notification-service")
	cfg := config.Load(config.Get("NOTIFICATION_PORT", "8084"), "dispatch_db")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoDB, err := database.ConnectMongo(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	timeline := NewMongoTimeline(mongoDB)
	ictx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := timeline.EnsureIndexes(ictx); err != nil {
		logger.WithError(err).Warn("Failed to create timeline index")
	}
	cancel()

	conn, ch, err := queue.ConnectRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to RabbitMQ")
	}
	defer conn.Close()
	defer ch.Close()

	msgs, err := queue.ConsumeMessages(ch, "notifications", queue.RouteReportCreated, queue.RouteCaseAssigned)
	if err != nil {
		logger.WithError(err).Fatal("Failed to start consumer")
	}
	logger.Info("Listening to notifications queue")

	hub := NewHub()
	srv := &server{
		hub:      hub,
		timeline: timeline,
		secret:   []byte(cfg.JWTSecret),
	}

	go hub.Run(ctx)
	go srv.consume(ctx, msgs)

	middleware.RegisterMetrics(eventsConsumedTotal)

	httpServer := &http.Server{Addr: cfg.Addr(), Handler: srv.routes()}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(sctx)
	}()

	logger.WithField("addr", cfg.Addr()).Info("Notification service running")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Fatal("Server failed")
	}
}
