package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile is a participant connected to one session. DisplayID is chosen by
// the client and stays stable across reconnects; ID is the storage key.
type Profile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	DisplayID uuid.UUID `gorm:"type:uuid;not null;index:idx_profiles_session_display"`
	Name      string    `gorm:"not null"`
	Avatar    string
	SessionID uuid.UUID `gorm:"type:uuid;not null;index:idx_profiles_session_display"`
}

func (p *Profile) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
