package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/thereayou/stringify/internal/models"
	"gorm.io/gorm/clause"
)

// Page selects one window of a sorted result set. Index is zero-based.
type Page struct {
	Index   int
	Size    int
	SortKey string
	Desc    bool
}

var messageSortKeys = map[string]bool{
	"sent_at": true,
	"id":      true,
}

func (d *Database) SaveMessage(ctx context.Context, message *models.Message) error {
	return d.with(ctx).Create(message).Error
}

// FindMessagesBySessionPaged returns the page.Index-th window of the session's
// messages ordered by page.SortKey.
func (d *Database) FindMessagesBySessionPaged(ctx context.Context, sessionID uuid.UUID, page Page) ([]models.Message, error) {
	if !messageSortKeys[page.SortKey] {
		return nil, fmt.Errorf("unsupported sort key %q", page.SortKey)
	}
	if page.Size <= 0 || page.Index < 0 {
		return nil, fmt.Errorf("invalid page %d of size %d", page.Index, page.Size)
	}

	var messages []models.Message
	err := d.with(ctx).
		Where("session_id = ?", sessionID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: page.SortKey}, Desc: page.Desc}).
		Offset(page.Index * page.Size).
		Limit(page.Size).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (d *Database) CountMessages(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var count int64
	err := d.with(ctx).Model(&models.Message{}).Where("session_id = ?", sessionID).Count(&count).Error
	return count, err
}
