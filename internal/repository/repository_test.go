package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"chatbox/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// A pooled second connection would see a different in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Session{},
		&model.Message{},
		&model.Document{},
		&model.DocumentChunk{},
	))
	return db
}

func TestTouchNeverMovesLastActivityBackwards(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, repo.Create(ctx, &model.Session{
		ID:           "s1",
		CreatedAt:    now,
		LastActivity: now,
	}))

	require.NoError(t, repo.Touch(ctx, "s1", now.Add(-time.Hour)))

	stored, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, stored.LastActivity.Before(now.Add(-time.Second)))
}

func TestTouchUnknownSessionIsNoop(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db)
	assert.NoError(t, repo.Touch(context.Background(), "ghost", time.Now()))
}

func TestListRecentBreaksTimestampTiesByID(t *testing.T) {
	db := newTestDB(t)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	at := time.Now()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Create(ctx, &model.Message{
			ID:        id,
			SessionID: "s1",
			Role:      model.RoleUser,
			Content:   id,
			CreatedAt: at,
		}))
	}

	messages, err := repo.ListRecentBySessionID(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "b", messages[0].ID)
	assert.Equal(t, "c", messages[1].ID)
}

func TestListRecentScopedToSession(t *testing.T) {
	db := newTestDB(t)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.Message{
		ID: "m1", SessionID: "s1", Role: model.RoleUser, Content: "mine", CreatedAt: time.Now(),
	}))
	require.NoError(t, repo.Create(ctx, &model.Message{
		ID: "m2", SessionID: "s2", Role: model.RoleUser, Content: "other", CreatedAt: time.Now(),
	}))

	messages, err := repo.ListRecentBySessionID(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "mine", messages[0].Content)
}

func TestCreateWithChunksIsAtomic(t *testing.T) {
	db := newTestDB(t)
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	doc := &model.Document{
		ID:               "d1",
		Filename:         "stored.txt",
		OriginalFilename: "orig.txt",
		MimeType:         "text/plain",
		ContentHash:      "hash-1",
	}
	// The duplicate chunk index violates the composite unique index, which
	// must roll back the document row too.
	chunks := []model.DocumentChunk{
		{ID: "c1", DocumentID: "d1", ChunkIndex: 0, Content: "one", ContentHash: "h1"},
		{ID: "c2", DocumentID: "d1", ChunkIndex: 0, Content: "two", ContentHash: "h2"},
	}

	err := repo.CreateWithChunks(ctx, doc, chunks)
	require.Error(t, err)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDuplicateContentHashRejectedByStorage(t *testing.T) {
	db := newTestDB(t)
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	first := &model.Document{ID: "d1", Filename: "a", OriginalFilename: "a", MimeType: "text/plain", ContentHash: "same"}
	require.NoError(t, repo.CreateWithChunks(ctx, first, nil))

	second := &model.Document{ID: "d2", Filename: "b", OriginalFilename: "b", MimeType: "text/plain", ContentHash: "same"}
	assert.Error(t, repo.CreateWithChunks(ctx, second, nil))
}
