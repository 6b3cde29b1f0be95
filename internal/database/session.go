package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/thereayou/stringify/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (d *Database) SaveSession(ctx context.Context, session *models.Session) error {
	return d.with(ctx).Create(session).Error
}

func (d *Database) UpdateSession(ctx context.Context, session *models.Session) error {
	return d.with(ctx).Omit(clause.Associations).Save(session).Error
}

func (d *Database) FindSessionByGUID(ctx context.Context, guid uuid.UUID) (*models.Session, error) {
	var session models.Session
	if err := d.with(ctx).First(&session, "guid = ?", guid).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (d *Database) FindSessionByKey(ctx context.Context, key string) (*models.Session, error) {
	var session models.Session
	// Struct condition so the driver quotes the "key" column.
	if err := d.with(ctx).Where(&models.Session{Key: &key}).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// LockSessionByGUID reads the session row with FOR UPDATE so concurrent
// membership changes from other instances wait for this transaction.
// SQLite ignores the locking clause; its single writer serializes instead.
func (d *Database) LockSessionByGUID(ctx context.Context, guid uuid.UUID) (*models.Session, error) {
	var session models.Session
	err := d.with(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		First(&session, "guid = ?", guid).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// DeleteSession removes the session together with its messages and profiles.
func (d *Database) DeleteSession(ctx context.Context, id uuid.UUID) error {
	return d.with(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Message{}, "session_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Profile{}, "session_id = ?", id).Error; err != nil {
			return err
		}

		res := tx.Delete(&models.Session{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
