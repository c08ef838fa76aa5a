package db

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a GORM connection for dbURL, which must start with
// "postgres://" or "sqlite://". "sqlite://:memory:" gives a private in-memory
// database.
func Open(dbURL string, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	memory := false

	switch {
	case strings.HasPrefix(dbURL, "postgres://"), strings.HasPrefix(dbURL, "postgresql://"):
		// The pgx driver accepts the URL form directly.
		dialector = postgres.Open(dbURL)
		log.Info("connecting to PostgreSQL database")
	case strings.HasPrefix(dbURL, "sqlite://"):
		dsn := strings.TrimPrefix(dbURL, "sqlite://")
		memory = dsn == ":memory:"
		dialector = sqlite.Open(dsn)
		log.Info("connecting to SQLite database", zap.String("dsn", dsn))
	default:
		return nil, fmt.Errorf("invalid DATABASE_URL prefix %q: must start with 'postgres://' or 'sqlite://'", dbURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// Unique violations surface as gorm.ErrDuplicatedKey on both dialects.
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if memory {
		// Every new connection to :memory: is a new, empty database.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
	}

	log.Info("database connection established")
	return db, nil
}
