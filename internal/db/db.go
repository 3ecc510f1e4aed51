package db

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/in-nis/classplan/internal/config"
	"github.com/in-nis/classplan/internal/models"
)

// Open connects to the configured database and tunes the pool.
func Open(cfg *config.Config, log *logrus.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBType {
	case "postgres":
		dialector = postgres.Open(cfg.DBUrl)
	case "sqlite":
		dialector = sqlite.Open(cfg.DBUrl)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.DBType)
	}

	logMode := logger.Warn
	if log.IsLevelEnabled(logrus.DebugLevel) {
		logMode = logger.Info
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxConns)
	sqlDB.SetMaxIdleConns(max(cfg.DBMaxConns/2, 1))

	log.WithField("driver", cfg.DBType).Info("Database connected")
	return conn, nil
}

// OpenMemory opens a private in-memory sqlite database. Each call gets its own
// database, which keeps tests isolated.
func OpenMemory() (*gorm.DB, error) {
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	// A second connection would see a different, empty database.
	sqlDB.SetMaxOpenConns(1)
	return conn, nil
}

// Migrate creates or updates every table the service uses.
func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&models.User{},
		&models.Class{},
		&models.Membership{},
		&models.Invitation{},
		&models.TeacherColor{},
		&models.Week{},
		&models.TimetableEntry{},
		&models.GroupTag{},
	)
}

func Ping(ctx context.Context, conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Close(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
