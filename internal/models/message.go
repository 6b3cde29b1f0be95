package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NoticeSender     = "Notice"
	AvatarConnect    = "connect"
	AvatarDisconnect = "disconnect"
)

type Message struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	CorrelationID uuid.UUID `gorm:"type:uuid"`
	Sender        string    `gorm:"not null"`
	Content       string    `gorm:"type:varchar(1000);not null"`
	Avatar        string
	SentAt        time.Time `gorm:"not null;index:idx_messages_session_sent"`
	SessionID     uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_session_sent"`
}

func (m *Message) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
