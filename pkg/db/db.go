package db

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/jonasacres/badgefile-sub000/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open opens the local badgefile database. One shared *gorm.DB backed by an
// explicit database/sql pool; callers never hold per-goroutine handles.
func Open(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", cfg.DBPath)

	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.DBPath, err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("database pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetMaxIdleConns(2)

	log.Info("database opened", zap.String("path", cfg.DBPath))
	return conn, nil
}

// Module wires the persistent store.
var Module = fx.Module("db",
	fx.Provide(Open),
)
