/*
 * @module service/database/database
 * @description Database connection and schema migration
 * @architecture layered architecture - data access layer
 * @documentReference dev_docs/sync_engine.md
 * @stateFlow open connection -> auto migrate -> hand the handle to the service constructors
 * @rules DATABASE_URL wins over the split DB_* variables; migration runs once at startup
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres, service/models
 * @refs main.go
 */

package database

import (
	"fmt"
	"log/slog"
	"os"

	"pennylane-sync-service/service/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects to PostgreSQL. DATABASE_URL takes precedence; otherwise the
// DSN is assembled from DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME,
// DB_SSLMODE and DB_SCHEMA.
func Open() (*gorm.DB, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		host := getEnvWithDefault("DB_HOST", "localhost")
		port := getEnvWithDefault("DB_PORT", "5432")
		user := getEnvWithDefault("DB_USER", "postgres")
		password := getEnvWithDefault("DB_PASSWORD", "postgres")
		dbname := getEnvWithDefault("DB_NAME", "postgres")
		sslmode := getEnvWithDefault("DB_SSLMODE", "disable")
		schema := getEnvWithDefault("DB_SCHEMA", "public")

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s",
			host, port, user, password, dbname, sslmode, schema)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	slog.Info("database connected")
	return db, nil
}

// AutoMigrate creates or updates the service tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.SystemConfig{},
		&models.SyncState{},
		&models.GuestSyncState{},
		&models.SyncHistoryEntry{},
		&models.StoreCustomer{},
		&models.StoreProduct{},
		&models.StoreOrder{},
		&models.StoreOrderItem{},
	)
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
