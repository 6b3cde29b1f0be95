package database

import (
	"context"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned by lookups that match no row.
	ErrNotFound = gorm.ErrRecordNotFound
	// ErrDuplicateKey is returned when a unique index (session key) rejects a write.
	ErrDuplicateKey = gorm.ErrDuplicatedKey
)

type Database struct {
	db *gorm.DB
}

// Transaction runs fn against a Database bound to a single transaction.
// Nested calls use savepoints.
func (d *Database) Transaction(ctx context.Context, fn func(tx *Database) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Database{db: tx})
	})
}

// Close releases the underlying connection pool.
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) with(ctx context.Context) *gorm.DB {
	return d.db.WithContext(ctx)
}
