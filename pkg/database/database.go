package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"scv_loans/pkg/config"
	"scv_loans/pkg/models"
)

const (
	maxRetries    = 10
	retryInterval = 5 * time.Second
)

func DSN(cfg config.DB) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port)
}

// Open connects to postgres, retrying while the database comes up, and
// checks the connection with a ping.
func Open(cfg config.DB, logger *zap.Logger) (*gorm.DB, error) {
	logger.Info("connecting to database",
		zap.String("host", cfg.Host),
		zap.String("port", cfg.Port),
		zap.String("name", cfg.Name))

	var (
		db  *gorm.DB
		err error
	)
	for i := 0; i < maxRetries; i++ {
		db, err = gorm.Open(postgres.Open(DSN(cfg)), &gorm.Config{})
		if err == nil {
			break
		}
		logger.Warn("database connection attempt failed",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries),
			zap.Error(err))
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connection established")
	return db, nil
}

// Migrate creates or updates the SCV tables.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Cliente{},
		&models.TipoDeFilme{},
		&models.Filme{},
		&models.Fita{},
		&models.Emprestimo{},
		&models.ItemEmprestimo{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
