package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/thereayou/stringify/internal/models"
)

// DateLayout is how message timestamps are rendered to clients.
const DateLayout = "2006-01-02 15:04"

// MessageDto is a chat message as clients send and receive it. Date is
// ignored on input.
type MessageDto struct {
	Guid    uuid.UUID `json:"guid"`
	From    string    `json:"from" validate:"required,min=3,max=30"`
	Content string    `json:"content" validate:"required,min=1,max=1000"`
	Avatar  string    `json:"avatar"`
	Date    string    `json:"date,omitempty"`
}

func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

func ToMessageDto(m models.Message) MessageDto {
	return MessageDto{
		Guid:    m.CorrelationID,
		From:    m.Sender,
		Content: m.Content,
		Avatar:  m.Avatar,
		Date:    FormatDate(m.SentAt),
	}
}

func ToMessageDtos(messages []models.Message) []MessageDto {
	return lo.Map(messages, func(m models.Message, _ int) MessageDto {
		return ToMessageDto(m)
	})
}
