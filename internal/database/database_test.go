package database

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/stringify/internal/models"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := OpenMemory(uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newSession(t *testing.T, db *Database, key string) *models.Session {
	t.Helper()
	session := &models.Session{CreatedAt: time.Now().UTC()}
	if key != "" {
		session.Key = &key
	}
	require.NoError(t, db.SaveSession(context.Background(), session))
	return session
}

func TestSession_FindByKeyAndGUID(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := openTestDB(t)

	session := newSession(t, db, "HC94F2")
	req.NotEqual(uuid.Nil, session.ID)
	req.NotEqual(uuid.Nil, session.GUID)
	req.NotEqual(session.ID, session.GUID)

	byKey, err := db.FindSessionByKey(ctx, "HC94F2")
	req.NoError(err)
	req.Equal(session.ID, byKey.ID)

	byGUID, err := db.FindSessionByGUID(ctx, session.GUID)
	req.NoError(err)
	req.Equal("HC94F2", byGUID.KeyValue())

	_, err = db.FindSessionByGUID(ctx, session.ID)
	req.ErrorIs(err, ErrNotFound)

	_, err = db.FindSessionByKey(ctx, "ZZ11ZZ")
	req.ErrorIs(err, ErrNotFound)
}

func TestSession_DuplicateKey(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := openTestDB(t)

	newSession(t, db, "AB12CD")

	other := newSession(t, db, "")
	dup := "AB12CD"
	other.Key = &dup
	req.ErrorIs(db.UpdateSession(ctx, other), ErrDuplicateKey)

	// Sessions still waiting for a key do not collide with each other.
	newSession(t, db, "")
}

func TestDeleteSession_Cascades(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := openTestDB(t)

	session := newSession(t, db, "AB12CD")
	keep := newSession(t, db, "EF34GH")

	for _, s := range []*models.Session{session, keep} {
		req.NoError(db.SaveProfile(ctx, &models.Profile{DisplayID: uuid.New(), Name: "John Doe", SessionID: s.ID}))
		req.NoError(db.SaveMessage(ctx, &models.Message{Sender: "John Doe", Content: "hi", SentAt: time.Now(), SessionID: s.ID}))
	}

	req.NoError(db.DeleteSession(ctx, session.ID))

	_, err := db.FindSessionByGUID(ctx, session.GUID)
	req.ErrorIs(err, ErrNotFound)
	count, err := db.CountProfiles(ctx, session.ID)
	req.NoError(err)
	req.Zero(count)
	count, err = db.CountMessages(ctx, session.ID)
	req.NoError(err)
	req.Zero(count)

	count, err = db.CountMessages(ctx, keep.ID)
	req.NoError(err)
	req.EqualValues(1, count)

	req.ErrorIs(db.DeleteSession(ctx, session.ID), ErrNotFound)
}

func TestProfile_ScopedToSession(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := openTestDB(t)

	first := newSession(t, db, "AB12CD")
	second := newSession(t, db, "EF34GH")
	displayID := uuid.New()

	profile := &models.Profile{DisplayID: displayID, Name: "John Doe", Avatar: "avatar1", SessionID: first.ID}
	req.NoError(db.SaveProfile(ctx, profile))

	found, err := db.FindProfileByDisplayID(ctx, first.ID, displayID)
	req.NoError(err)
	req.Equal(profile.ID, found.ID)

	_, err = db.FindProfileByDisplayID(ctx, second.ID, displayID)
	req.ErrorIs(err, ErrNotFound)

	found, err = db.FindProfileBySessionGUID(ctx, first.GUID, displayID)
	req.NoError(err)
	req.Equal(profile.ID, found.ID)

	_, err = db.FindProfileBySessionGUID(ctx, second.GUID, displayID)
	req.ErrorIs(err, ErrNotFound)
	_, err = db.FindProfileBySessionGUID(ctx, first.ID, displayID)
	req.ErrorIs(err, ErrNotFound)

	profiles, err := db.ListProfilesBySession(ctx, first.ID)
	req.NoError(err)
	req.Len(profiles, 1)

	req.NoError(db.DeleteProfile(ctx, profile.ID))
	count, err := db.CountProfiles(ctx, first.ID)
	req.NoError(err)
	req.Zero(count)
}

func TestMessages_Paged(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := openTestDB(t)
	session := newSession(t, db, "AB12CD")

	base := time.Date(2021, 1, 1, 14, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		req.NoError(db.SaveMessage(ctx, &models.Message{
			Sender:    "John Doe",
			Content:   string(rune('a' + i)),
			SentAt:    base.Add(time.Duration(i) * time.Minute),
			SessionID: session.ID,
		}))
	}

	page := Page{Index: 0, Size: 10, SortKey: "sent_at", Desc: true}
	messages, err := db.FindMessagesBySessionPaged(ctx, session.ID, page)
	req.NoError(err)
	req.Len(messages, 10)
	req.Equal("o", messages[0].Content)

	page.Index = 1
	messages, err = db.FindMessagesBySessionPaged(ctx, session.ID, page)
	req.NoError(err)
	req.Len(messages, 5)
	req.Equal("a", messages[4].Content)

	_, err = db.FindMessagesBySessionPaged(ctx, session.ID, Page{Size: 10, SortKey: "content; DROP TABLE messages"})
	req.Error(err)
}

func TestTransaction_RollsBack(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := openTestDB(t)
	session := newSession(t, db, "AB12CD")

	err := db.Transaction(ctx, func(tx *Database) error {
		if _, err := tx.LockSessionByGUID(ctx, session.GUID); err != nil {
			return err
		}
		if err := tx.SaveProfile(ctx, &models.Profile{DisplayID: uuid.New(), Name: "John Doe", SessionID: session.ID}); err != nil {
			return err
		}
		return context.Canceled
	})
	req.ErrorIs(err, context.Canceled)

	count, err := db.CountProfiles(ctx, session.ID)
	req.NoError(err)
	req.Zero(count)
}

func TestOpen_LogsThroughSlog(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	db, err := Open(DriverMemory, uuid.NewString(), log)
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.FindSessionByKey(ctx, "ZZ11ZZ")
	req.ErrorIs(err, ErrNotFound)
	_, err = db.FindSessionByGUID(ctx, uuid.New())
	req.ErrorIs(err, ErrNotFound)
	req.Empty(buf.String())

	_, err = db.FindMessagesBySessionPaged(ctx, uuid.New(), Page{Size: 10, SortKey: "sent_at"})
	req.NoError(err)
	req.Empty(buf.String())
}

func TestOpen_RejectsUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "dsn", nil)
	require.ErrorContains(t, err, "unsupported driver")

	_, err = Open(DriverMemory, "", nil)
	require.Error(t, err)
}
