package database

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/thereayou/stringify/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	// DriverMemory is SQLite held in memory; the DSN is only the database name.
	DriverMemory = "memory"

	slowQueryThreshold = 200 * time.Millisecond
)

// Open connects with the named driver and migrates the schema.
// Gorm warnings and slow queries go to log; a nil log uses slog.Default.
func Open(driver, dsn string, log *slog.Logger) (*Database, error) {
	if dsn == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	if log == nil {
		log = slog.Default()
	}

	var (
		dialector gorm.Dialector
		single    bool
	)
	switch strings.ToLower(driver) {
	case DriverPostgres, "postgresql", "":
		dialector = postgres.Open(dsn)
	case DriverSQLite, "sqlite3":
		dialector = sqlite.Open(withForeignKeys(dsn))
		single = true
	case DriverMemory:
		dialector = sqlite.Open(withForeignKeys(fmt.Sprintf("file:%s?mode=memory&cache=shared", dsn)))
		single = true
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         newLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if single {
		// A single connection keeps in-memory databases shared and serializes
		// SQLite writers instead of failing with "database is locked".
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return &Database{db: db}, nil
}

// Migrate creates or updates the sessions, profiles and messages tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Session{}, &models.Profile{}, &models.Message{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on"
}

// OpenMemory opens a private in-memory SQLite database named name.
func OpenMemory(name string) (*Database, error) {
	return Open(DriverMemory, name, nil)
}

// newLogger routes gorm output through slog at warn level. Lookups that
// find nothing are an expected outcome and are not logged.
func newLogger(log *slog.Logger) logger.Interface {
	return logger.New(slog.NewLogLogger(log.Handler(), slog.LevelWarn), logger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}
