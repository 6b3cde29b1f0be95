package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/thereayou/stringify/internal/clock"
	"github.com/thereayou/stringify/internal/database"
	"github.com/thereayou/stringify/internal/models"
	"github.com/thereayou/stringify/pkg/key"
)

const DefaultKeyAttempts = 5

// KeyGenerator is satisfied by *key.Generator.
type KeyGenerator interface {
	Generate() key.Key
}

// SessionRegistry owns session lookup and creation. It is shared by every
// service that needs "get the session or fail".
type SessionRegistry struct {
	db          *database.Database
	keys        KeyGenerator
	clock       clock.Clock
	joinURLBase string
	attempts    int
	log         *slog.Logger
}

type RegistryConfig struct {
	JoinURLBase string
	KeyAttempts int
}

func NewSessionRegistry(db *database.Database, keys KeyGenerator, clk clock.Clock, cfg RegistryConfig, log *slog.Logger) *SessionRegistry {
	if cfg.KeyAttempts <= 0 {
		cfg.KeyAttempts = DefaultKeyAttempts
	}
	return &SessionRegistry{
		db:          db,
		keys:        keys,
		clock:       clk,
		joinURLBase: cfg.JoinURLBase,
		attempts:    cfg.KeyAttempts,
		log:         log,
	}
}

// withDB returns a copy bound to tx.
func (r *SessionRegistry) withDB(tx *database.Database) *SessionRegistry {
	cp := *r
	cp.db = tx
	return &cp
}

// Create persists a session, then assigns its join URL and key. The key is
// regenerated on a unique-index collision, at most r.attempts times.
func (r *SessionRegistry) Create(ctx context.Context) (*models.Session, error) {
	session := &models.Session{CreatedAt: r.clock.Now()}
	if err := r.db.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	session.JoinURL = r.joinURLBase + session.GUID.String()

	for attempt := 1; ; attempt++ {
		k := r.keys.Generate().String()
		session.Key = &k

		// Each attempt runs in its own (nested) transaction so a rejected
		// write does not poison an enclosing one.
		err := r.db.Transaction(ctx, func(tx *database.Database) error {
			return tx.UpdateSession(ctx, session)
		})
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, database.ErrDuplicateKey) {
			return nil, err
		}

		r.log.Warn("Session key collision", "session_id", session.ID, "key", k, "attempt", attempt)
		if attempt >= r.attempts {
			session.Key = nil
			if delErr := r.db.DeleteSession(ctx, session.ID); delErr != nil {
				r.log.Error("Failed to remove keyless session", "session_id", session.ID, "error", delErr)
			}
			return nil, fmt.Errorf("%w after %d attempts", ErrKeyExhausted, attempt)
		}
	}
}

func (r *SessionRegistry) FindByKey(ctx context.Context, k key.Key) (*models.Session, error) {
	session, err := r.db.FindSessionByKey(ctx, k.String())
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: no meetings with the key %s was found", ErrSessionNotFound, k)
	}
	return session, err
}

// FindByID finds a session by its public id.
func (r *SessionRegistry) FindByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	session, err := r.db.FindSessionByGUID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFoundByID(id)
	}
	return session, err
}

// remove deletes the session and everything attached to it.
func (r *SessionRegistry) remove(ctx context.Context, session *models.Session) error {
	err := r.db.DeleteSession(ctx, session.ID)
	if errors.Is(err, database.ErrNotFound) {
		return notFoundByID(session.GUID)
	}
	return err
}

// lock reads the session for update; only meaningful inside a transaction.
func (r *SessionRegistry) lock(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	session, err := r.db.LockSessionByGUID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFoundByID(id)
	}
	return session, err
}

func notFoundByID(id uuid.UUID) error {
	return fmt.Errorf("%w: no meetings with the id %s was found", ErrSessionNotFound, id)
}
