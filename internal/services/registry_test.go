package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/stringify/internal/models"
	"github.com/thereayou/stringify/pkg/key"
)

func TestRegistry_Create(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	session, err := s.registry.Create(ctx)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, session.ID)
	require.Equal(t, testJoinURLBase+session.GUID.String(), session.JoinURL)
	require.NotContains(t, session.JoinURL, session.ID.String())
	require.True(t, key.IsValid(session.KeyValue()))

	byKey, err := s.registry.FindByKey(ctx, key.Key(session.KeyValue()))
	require.NoError(t, err)
	require.Equal(t, session.ID, byKey.ID)
	require.Equal(t, session.JoinURL, byKey.JoinURL)

	byID, err := s.registry.FindByID(ctx, session.GUID)
	require.NoError(t, err)
	require.Equal(t, session.ID, byID.ID)
}

func TestRegistry_Create_RetriesOnKeyCollision(t *testing.T) {
	keys := &scriptedKeys{keys: []key.Key{"AAAAA1", "AAAAA1", "BBBBB2"}}
	s := newTestServicesWithKeys(t, keys)
	ctx := context.Background()

	first, err := s.registry.Create(ctx)
	require.NoError(t, err)
	require.Equal(t, "AAAAA1", first.KeyValue())

	second, err := s.registry.Create(ctx)
	require.NoError(t, err)
	require.Equal(t, "BBBBB2", second.KeyValue())
	require.Equal(t, 3, keys.next)
}

func TestRegistry_Create_GivesUpAfterAttempts(t *testing.T) {
	keys := &scriptedKeys{keys: []key.Key{"CCCCC3"}}
	s := newTestServicesWithKeys(t, keys)
	ctx := context.Background()

	first, err := s.registry.Create(ctx)
	require.NoError(t, err)

	_, err = s.registry.Create(ctx)
	require.ErrorIs(t, err, ErrKeyExhausted)
	require.Equal(t, 1+DefaultKeyAttempts, keys.next)

	// The first session keeps its key.
	found, err := s.registry.FindByKey(ctx, "CCCCC3")
	require.NoError(t, err)
	require.Equal(t, first.ID, found.ID)
}

func TestRegistry_NotFound(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	_, err := s.registry.FindByID(ctx, uuid.New())
	require.ErrorIs(t, err, ErrSessionNotFound)

	_, err = s.registry.FindByKey(ctx, "ZZZZZ7")
	require.ErrorIs(t, err, ErrSessionNotFound)

	session, err := s.registry.Create(ctx)
	require.NoError(t, err)
	_, err = s.registry.FindByID(ctx, session.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
	require.ErrorIs(t, s.registry.remove(ctx, &models.Session{ID: uuid.New(), GUID: uuid.New()}), ErrSessionNotFound)
}
