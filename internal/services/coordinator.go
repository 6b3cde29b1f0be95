package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/thereayou/stringify/internal/database"
	"github.com/thereayou/stringify/internal/models"
)

// ConnectionNotice is the system message announcing a connect or disconnect.
type ConnectionNotice struct {
	Profile  models.Profile
	Message  models.Message
	Rejoined bool
}

// ConnectionCoordinator applies connect, disconnect and message events to a
// session. Events for the same session are handled one at a time; events for
// different sessions never wait on each other.
type ConnectionCoordinator struct {
	db       *database.Database
	registry *SessionRegistry
	messages *MessageStore
	locks    *sessionLocks
	owners   *connectionOwners
	log      *slog.Logger
}

func NewConnectionCoordinator(db *database.Database, registry *SessionRegistry, messages *MessageStore, log *slog.Logger) *ConnectionCoordinator {
	return &ConnectionCoordinator{
		db:       db,
		registry: registry,
		messages: messages,
		locks:    newSessionLocks(),
		owners:   newConnectionOwners(),
		log:      log,
	}
}

// OnMessage appends a chat message to the session. Sessions are addressed by
// their public id throughout the coordinator.
func (c *ConnectionCoordinator) OnMessage(ctx context.Context, sessionID uuid.UUID, draft MessageDraft) (*models.Message, error) {
	unlock := c.locks.lock(sessionID)
	defer unlock()

	session, err := c.registry.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return c.messages.Append(ctx, session.ID, draft)
}

// OnConnect attaches profile to the session, or recognises it as a rejoin when
// a profile with the same display id is already attached. New profiles are
// refused once the session is full.
func (c *ConnectionCoordinator) OnConnect(ctx context.Context, sessionID uuid.UUID, profile models.Profile) (*ConnectionNotice, error) {
	unlock := c.locks.lock(sessionID)
	defer unlock()
	return c.connect(ctx, sessionID, profile)
}

// OnConnectFrom is OnConnect for a live connection. connID becomes the owner
// of the profile, taking it over from any earlier connection of a rejoin.
func (c *ConnectionCoordinator) OnConnectFrom(ctx context.Context, sessionID, connID uuid.UUID, profile models.Profile) (*ConnectionNotice, error) {
	unlock := c.locks.lock(sessionID)
	defer unlock()

	notice, err := c.connect(ctx, sessionID, profile)
	if err != nil {
		return nil, err
	}
	c.owners.set(sessionID, notice.Profile.DisplayID, connID)
	return notice, nil
}

func (c *ConnectionCoordinator) connect(ctx context.Context, sessionID uuid.UUID, profile models.Profile) (*ConnectionNotice, error) {
	if profile.DisplayID == uuid.Nil {
		profile.DisplayID = uuid.New()
	}

	var notice *ConnectionNotice
	err := c.db.Transaction(ctx, func(tx *database.Database) error {
		session, err := c.registry.withDB(tx).lock(ctx, sessionID)
		if err != nil {
			return err
		}

		existing, err := tx.FindProfileByDisplayID(ctx, session.ID, profile.DisplayID)
		switch {
		case err == nil:
			notice = &ConnectionNotice{Profile: *existing, Rejoined: true}
		case errors.Is(err, database.ErrNotFound):
			count, err := tx.CountProfiles(ctx, session.ID)
			if err != nil {
				return err
			}
			if count >= models.MaxProfiles {
				return fmt.Errorf("%w: meeting has reached the maximum number of connections", ErrConnectionLimitReached)
			}

			profile.ID = uuid.Nil
			profile.SessionID = session.ID
			if err := tx.SaveProfile(ctx, &profile); err != nil {
				return err
			}
			notice = &ConnectionNotice{Profile: profile}
		default:
			return err
		}

		message, err := c.messages.withDB(tx).Append(ctx, session.ID, MessageDraft{
			Sender:  models.NoticeSender,
			Content: fmt.Sprintf("%s has connected to the meeting.", notice.Profile.Name),
			Avatar:  models.AvatarConnect,
		})
		if err != nil {
			return err
		}
		notice.Message = *message
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.log.Info("Profile connected", "session_id", sessionID, "profile", notice.Profile.DisplayID, "rejoined", notice.Rejoined)
	return notice, nil
}

// OnDisconnect detaches the profile from the session. An unknown profile is
// reported before the session is resolved. When it was the last one, the
// session and its history are deleted and no notice is returned.
func (c *ConnectionCoordinator) OnDisconnect(ctx context.Context, sessionID, displayID uuid.UUID) (*ConnectionNotice, error) {
	unlock := c.locks.lock(sessionID)
	defer unlock()
	return c.disconnect(ctx, sessionID, displayID)
}

// OnConnectionClosed disconnects the profile connID connected as, unless a
// later connection has taken the profile over since. In that case nothing
// changes and ErrProfileTakenOver is returned.
func (c *ConnectionCoordinator) OnConnectionClosed(ctx context.Context, sessionID, connID, displayID uuid.UUID) (*ConnectionNotice, error) {
	unlock := c.locks.lock(sessionID)
	defer unlock()

	if !c.owners.owns(sessionID, displayID, connID) {
		return nil, fmt.Errorf("%w: profile %s in meeting %s", ErrProfileTakenOver, displayID, sessionID)
	}
	return c.disconnect(ctx, sessionID, displayID)
}

func (c *ConnectionCoordinator) disconnect(ctx context.Context, sessionID, displayID uuid.UUID) (*ConnectionNotice, error) {
	var notice *ConnectionNotice
	err := c.db.Transaction(ctx, func(tx *database.Database) error {
		profile, err := tx.FindProfileBySessionGUID(ctx, sessionID, displayID)
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("%w: no profile %s in meeting %s", ErrProfileNotFound, displayID, sessionID)
		}
		if err != nil {
			return err
		}

		registry := c.registry.withDB(tx)
		session, err := registry.lock(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := tx.DeleteProfile(ctx, profile.ID); err != nil {
			return err
		}

		remaining, err := tx.CountProfiles(ctx, session.ID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			return registry.remove(ctx, session)
		}

		message, err := c.messages.withDB(tx).Append(ctx, session.ID, MessageDraft{
			Sender:  models.NoticeSender,
			Content: fmt.Sprintf("%s has disconnected from the meeting.", profile.Name),
			Avatar:  models.AvatarDisconnect,
		})
		if err != nil {
			return err
		}
		notice = &ConnectionNotice{Profile: *profile, Message: *message}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if notice == nil {
		c.owners.dropSession(sessionID)
		c.log.Info("Meeting dissolved", "session_id", sessionID)
		return nil, nil
	}
	c.owners.drop(sessionID, displayID)
	c.log.Info("Profile disconnected", "session_id", sessionID, "profile", displayID)
	return notice, nil
}
