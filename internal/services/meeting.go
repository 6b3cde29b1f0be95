package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/thereayou/stringify/internal/database"
	"github.com/thereayou/stringify/internal/models"
	"github.com/thereayou/stringify/pkg/key"
)

// MeetingService creates meetings and resolves them for joining.
type MeetingService struct {
	db       *database.Database
	registry *SessionRegistry
	log      *slog.Logger
}

func NewMeetingService(db *database.Database, registry *SessionRegistry, log *slog.Logger) *MeetingService {
	return &MeetingService{db: db, registry: registry, log: log}
}

// CreateMeeting creates a session with profile as its first member. The
// capacity rule does not apply here.
func (s *MeetingService) CreateMeeting(ctx context.Context, profile models.Profile) (*models.Profile, *models.Session, error) {
	if profile.DisplayID == uuid.Nil {
		profile.DisplayID = uuid.New()
	}
	profile.ID = uuid.Nil

	var session *models.Session
	err := s.db.Transaction(ctx, func(tx *database.Database) error {
		var err error
		session, err = s.registry.withDB(tx).Create(ctx)
		if err != nil {
			return err
		}
		profile.SessionID = session.ID
		return tx.SaveProfile(ctx, &profile)
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Info("Meeting created", "session_id", session.GUID, "key", session.KeyValue(), "profile", profile.DisplayID)
	return &profile, session, nil
}

// ResolveByKey finds a joinable session by its key.
func (s *MeetingService) ResolveByKey(ctx context.Context, raw string) (*models.Session, error) {
	k, err := key.Parse(raw)
	if err != nil {
		return nil, err
	}
	session, err := s.registry.FindByKey(ctx, k)
	if err != nil {
		return nil, err
	}
	return s.checkCapacity(ctx, session)
}

// ResolveByID finds a joinable session by its public id.
func (s *MeetingService) ResolveByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	session, err := s.registry.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.checkCapacity(ctx, session)
}

// ListConnectedProfiles returns the profiles attached to the session, in no
// particular order.
func (s *MeetingService) ListConnectedProfiles(ctx context.Context, id uuid.UUID) ([]models.Profile, error) {
	session, err := s.registry.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.db.ListProfilesBySession(ctx, session.ID)
}

// Find returns the session without applying the capacity rule.
func (s *MeetingService) Find(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	return s.registry.FindByID(ctx, id)
}

// checkCapacity is advisory: admission re-checks under the session lock.
func (s *MeetingService) checkCapacity(ctx context.Context, session *models.Session) (*models.Session, error) {
	count, err := s.db.CountProfiles(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if count >= models.MaxProfiles {
		return nil, fmt.Errorf("%w: meeting has reached the maximum number of connections", ErrConnectionLimitReached)
	}
	return session, nil
}
