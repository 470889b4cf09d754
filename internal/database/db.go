package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/model"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info("connected to postgres")
	return db, nil
}

// Migrate brings the schema up to date: gorm creates the tables, then the embedded goose
// migrations add the sequences, partial indexes and seed rows gorm cannot express.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Role{},
		&model.Permission{},
		&model.AuditLog{},
		&model.AssetCategory{},
		&model.AssetRequest{},
		&model.Quotation{},
		&model.PurchaseOrder{},
		&model.GoodsReceivedNote{},
		&model.Asset{},
	)
	if err != nil {
		return fmt.Errorf("auto-migrate models: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if err := runGoose(sqlDB, goose.Up); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	log.Info("database schema is up to date")
	return nil
}

// MigrationStatus logs the applied state of every embedded migration.
func MigrationStatus(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return runGoose(sqlDB, goose.Status)
}

func runGoose(sqlDB *sql.DB, cmd func(*sql.DB, string, ...goose.OptionsFunc) error) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return cmd(sqlDB, migrationsDir)
}
