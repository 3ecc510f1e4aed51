package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/in-nis/classplan/internal/api"
	"github.com/in-nis/classplan/internal/config"
	"github.com/in-nis/classplan/internal/cron"
	"github.com/in-nis/classplan/internal/db"
	"github.com/in-nis/classplan/internal/excel"
	"github.com/in-nis/classplan/internal/extract"
	"github.com/in-nis/classplan/internal/logger"
	"github.com/in-nis/classplan/internal/metrics"
	"github.com/in-nis/classplan/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using system env")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	log := logger.New(cfg.LogLevel)
	if !log.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}

	conn, err := db.Open(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to open database")
	}

	if err := db.Migrate(conn); err != nil {
		log.WithError(err).Fatal("Failed to migrate database")
	}

	m := metrics.New()
	svc := service.New(conn, log, service.WithMetrics(m))

	r := api.SetupRouter(api.Deps{
		Config:    cfg,
		Service:   svc,
		Health:    func(ctx context.Context) error { return db.Ping(ctx, conn) },
		Metrics:   m,
		Logger:    log,
		Excel:     excel.NewParser(log),
		Extractor: extract.NewClient(cfg.ExtractorURL, cfg.ExtractorTimeout),
	})

	// Start cron jobs
	jobs, err := cron.StartJobs(cfg.StatsSchedule, svc, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to schedule jobs")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	<-jobs.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Forced shutdown")
	}
	closeDB(conn, log)
}

func closeDB(conn *gorm.DB, log *logrus.Logger) {
	if err := db.Close(conn); err != nil {
		log.WithError(err).Warn("Failed to close database")
	}
}
