package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/stringify/internal/handlers/dto"
	"github.com/thereayou/stringify/internal/models"
	"github.com/thereayou/stringify/internal/services"
	"github.com/thereayou/stringify/pkg/auth"
)

// Inviter sends invitations without blocking the request.
type Inviter interface {
	Invite(email, invitedBy string, sessionID uuid.UUID)
}

type MeetingHandler struct {
	meetings *services.MeetingService
	tokens   *auth.JWTManager
	invites  Inviter
	log      *slog.Logger
}

func NewMeetingHandler(meetings *services.MeetingService, tokens *auth.JWTManager, invites Inviter, log *slog.Logger) *MeetingHandler {
	return &MeetingHandler{meetings: meetings, tokens: tokens, invites: invites, log: log}
}

// NewMeeting creates a meeting with the posted profile as its first member.
func (h *MeetingHandler) NewMeeting(c *gin.Context) {
	var req dto.ProfileDto
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.log, err)
		return
	}

	profile, session, err := h.meetings.CreateMeeting(c.Request.Context(), req.ToModel())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	token, expiresAt, err := h.issueToken(session)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewMeetingResponse{
		Profile:               dto.ToProfileDto(*profile),
		ChatSession:           dto.ToChatSessionDto(*session),
		ConnectToken:          token,
		ConnectTokenExpiresAt: expiresAt,
	})
}

// FindMeeting resolves a meeting by key, or by chat-id when no key is given.
func (h *MeetingHandler) FindMeeting(c *gin.Context) {
	var query dto.FindMeetingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, h.log, err)
		return
	}

	ctx := c.Request.Context()
	var (
		session *models.Session
		err     error
	)
	switch {
	case query.Key != "":
		session, err = h.meetings.ResolveByKey(ctx, query.Key)
	case query.ChatID != "":
		session, err = h.meetings.ResolveByID(ctx, uuid.MustParse(query.ChatID))
	default:
		badRequest(c, h.log, errNoMeetingParam)
		return
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	token, expiresAt, err := h.issueToken(session)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.FindMeetingResponse{
		ChatSession:           dto.ToChatSessionDto(*session),
		ConnectToken:          token,
		ConnectTokenExpiresAt: expiresAt,
	})
}

// issueToken signs a connect token for the session's public id.
func (h *MeetingHandler) issueToken(session *models.Session) (string, string, error) {
	token, err := h.tokens.Generate(session.GUID)
	if err != nil {
		return "", "", err
	}
	expiry, err := h.tokens.Expiry(token)
	if err != nil {
		return "", "", err
	}
	return token, expiry.UTC().Format(time.RFC3339), nil
}

func (h *MeetingHandler) ProfilesConnected(c *gin.Context) {
	var query dto.ChatIDQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, h.log, err)
		return
	}

	profiles, err := h.meetings.ListConnectedProfiles(c.Request.Context(), uuid.MustParse(query.ChatID))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToProfileDtos(profiles))
}

// Invite e-mails a join link for an existing meeting. Delivery happens in
// the background; failures are logged only.
func (h *MeetingHandler) Invite(c *gin.Context) {
	var uri dto.InviteURI
	if err := c.ShouldBindUri(&uri); err != nil {
		badRequest(c, h.log, err)
		return
	}
	var query dto.ChatIDQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, h.log, err)
		return
	}

	session, err := h.meetings.Find(c.Request.Context(), uuid.MustParse(query.ChatID))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.invites.Invite(uri.Email, uri.Name, session.GUID)
	c.Status(http.StatusAccepted)
}
