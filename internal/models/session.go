package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxProfiles is the number of participants a session admits at once.
const MaxProfiles = 5

type Session struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	// GUID is the public identifier carried by join URLs, tokens and
	// destinations. ID never leaves the storage layer.
	GUID      uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	Key       *string   `gorm:"type:varchar(6);uniqueIndex"`
	JoinURL   string
	CreatedAt time.Time

	// Relations, removed explicitly by database.DeleteSession
	Profiles []Profile `gorm:"foreignKey:SessionID"`
	Messages []Message `gorm:"foreignKey:SessionID"`
}

func (s *Session) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.GUID == uuid.Nil {
		s.GUID = uuid.New()
	}
	return nil
}

// KeyValue returns the assigned key or "" while the session is still being created.
func (s *Session) KeyValue() string {
	if s.Key == nil {
		return ""
	}
	return *s.Key
}
