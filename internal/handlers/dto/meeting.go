package dto

import (
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/thereayou/stringify/internal/models"
)

// ProfileDto identifies a participant. Guid is chosen by the client and
// reused when it reconnects.
type ProfileDto struct {
	Guid   uuid.UUID `json:"guid"`
	Name   string    `json:"name" binding:"required,min=3,max=30" validate:"required,min=3,max=30"`
	Avatar string    `json:"avatar"`
}

func (p ProfileDto) ToModel() models.Profile {
	return models.Profile{DisplayID: p.Guid, Name: p.Name, Avatar: p.Avatar}
}

func ToProfileDto(p models.Profile) ProfileDto {
	return ProfileDto{Guid: p.DisplayID, Name: p.Name, Avatar: p.Avatar}
}

func ToProfileDtos(profiles []models.Profile) []ProfileDto {
	return lo.Map(profiles, func(p models.Profile, _ int) ProfileDto {
		return ToProfileDto(p)
	})
}

// ChatSessionDto carries the public id only; the storage id stays server side.
type ChatSessionDto struct {
	Guid    uuid.UUID `json:"guid"`
	Key     string    `json:"key"`
	JoinURL string    `json:"joinUrl"`
}

func ToChatSessionDto(s models.Session) ChatSessionDto {
	return ChatSessionDto{Guid: s.GUID, Key: s.KeyValue(), JoinURL: s.JoinURL}
}

// NewMeetingResponse answers POST /api/meetings/new-meeting.
type NewMeetingResponse struct {
	Profile               ProfileDto     `json:"profile"`
	ChatSession           ChatSessionDto `json:"chatSession"`
	ConnectToken          string         `json:"connectToken"`
	ConnectTokenExpiresAt string         `json:"connectTokenExpiresAt"`
}

// FindMeetingResponse answers GET /api/meetings/find-meeting.
type FindMeetingResponse struct {
	ChatSession           ChatSessionDto `json:"chatSession"`
	ConnectToken          string         `json:"connectToken"`
	ConnectTokenExpiresAt string         `json:"connectTokenExpiresAt"`
}

type ConnectionNoticeDto struct {
	Profile           ProfileDto `json:"profile"`
	ConnectionMessage MessageDto `json:"connectionMessage"`
}

func ToConnectionNoticeDto(profile models.Profile, message models.Message) ConnectionNoticeDto {
	return ConnectionNoticeDto{Profile: ToProfileDto(profile), ConnectionMessage: ToMessageDto(message)}
}

// InviteURI binds POST /api/meetings/invite/:email/by/:name.
type InviteURI struct {
	Email string `uri:"email" binding:"required,email"`
	Name  string `uri:"name" binding:"required,min=3,max=30"`
}

// ChatIDQuery binds the chat-id query parameter.
type ChatIDQuery struct {
	ChatID string `form:"chat-id" binding:"required,uuid"`
}

type FindMeetingQuery struct {
	Key    string `form:"key"`
	ChatID string `form:"chat-id" binding:"omitempty,uuid"`
}

type HistoryQuery struct {
	ChatID string `form:"chat-id" binding:"required,uuid"`
	Page   *int   `form:"page" binding:"required"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	ExceptionType string `json:"exceptionType"`
	Message       string `json:"message"`
	Status        int    `json:"status"`
	Timestamp     string `json:"timestamp"`
}
