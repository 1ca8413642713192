package db

import (
	"database/sql"
	"fmt"

	"github.com/ikkim/videokb-backend/config"
	appLogger "github.com/ikkim/videokb-backend/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the process-wide handle opened by Initialize.
var DB *gorm.DB

// Initialize opens the Postgres knowledge base and sizes its pool from cfg.
func Initialize(cfg *config.DatabaseConfig) error {
	appLogger.Info("Connecting to video database", map[string]interface{}{
		"host":     cfg.Host,
		"port":     cfg.Port,
		"database": cfg.DBName,
		"user":     cfg.User,
	})

	conn, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		// SQL 由 zerolog 的 request 紀錄涵蓋
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to open video database: %w", err)
	}

	if err := ConfigurePool(conn, cfg); err != nil {
		return err
	}

	DB = conn
	return nil
}

// ConfigurePool applies the connection limits of cfg to the pool behind conn.
func ConfigurePool(conn *gorm.DB, cfg *config.DatabaseConfig) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return fmt.Errorf("failed to access connection pool: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	appLogger.Info("Video database pool ready", poolFields(sqlDB, cfg))
	return nil
}

func poolFields(sqlDB *sql.DB, cfg *config.DatabaseConfig) map[string]interface{} {
	return map[string]interface{}{
		"max_open_conns":     sqlDB.Stats().MaxOpenConnections,
		"max_idle_conns":     cfg.MaxIdleConns,
		"conn_max_lifetime":  cfg.ConnMaxLifetime.String(),
		"conn_max_idle_time": cfg.ConnMaxIdleTime.String(),
	}
}

// Close releases the pool opened by Initialize. Safe to call when Initialize failed.
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func GetDB() *gorm.DB {
	return DB
}
