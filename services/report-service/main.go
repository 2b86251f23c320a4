package main

import (
	"context"
	"net/http"
	"time"

	"police-dispatch-system/pkg/config"
	"police-dispatch-system/pkg/database"
	"police-dispatch-system/pkg/dispatch"
	"police-dispatch-system/pkg/middleware"
	"police-dispatch-system/pkg/queue"
	"police-dispatch-system/pkg/security"
	"police-dispatch-system/services/report-service/assignment"
	"police-dispatch-system/services/report-service/evidence"
	"police-dispatch-system/services/report-service/records"
)

func main() {
	logger := middleware.SetupLogging("report-service")
	cfg := config.Load("8082", "dispatch_db")

	db, err := database.ConnectPostgres(cfg.PostgresDSN())
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	logger.Info("Running auto migration")
	if err := db.AutoMigrate(&dispatch.Station{}, &dispatch.Officer{}, &dispatch.Report{}); err != nil {
		logger.WithError(err).Fatal("Migration failed")
	}

	key, err := security.KeyFrom(cfg.AnonEncKey, cfg.JWTSecret)
	if err != nil {
		logger.WithError(err).Fatal("Invalid ANON_ENC_KEY")
	}
	sealer, err := security.NewCipher(key)
	if err != nil {
		logger.WithError(err).Fatal("Failed to init field cipher")
	}

	var publisher queue.Publisher = queue.NopPublisher{}
	conn, ch, err := queue.ConnectRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.WithError(err).Warn("RabbitMQ unavailable, events will not be published")
	} else {
		defer conn.Close()
		defer ch.Close()
		publisher = queue.NewPublisher(ch)
		logger.Info("Connected to RabbitMQ")
	}

	var gallery *evidence.Gallery
	backend, err := evidence.NewMinioBackend(evidence.MinioConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	})
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = backend.EnsureBucket(ctx)
		cancel()
	}
	if err != nil {
		logger.WithError(err).Warn("Object storage unavailable, evidence endpoints disabled")
	} else {
		gallery = evidence.NewGallery(backend)
	}

	middleware.RegisterMetrics(caseAssignmentsTotal, reportsCreatedTotal)

	srv := &server{
		assign:    assignment.NewService(assignment.NewGormStore(db)),
		records:   records.NewGormStore(db),
		gallery:   gallery,
		publisher: publisher,
		sealer:    sealer,
		ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		now: time.Now,
	}

	logger.WithField("addr", cfg.Addr()).Info("Report service running")
	if err := http.ListenAndServe(cfg.Addr(), srv.routes([]byte(cfg.JWTSecret))); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
}
