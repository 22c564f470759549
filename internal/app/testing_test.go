package app

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"chatbox/internal/ai"
	"chatbox/internal/model"
	"chatbox/internal/repository"
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

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// repoSink persists directly, standing in for the RabbitMQ publisher.
type repoSink struct {
	repo *repository.MessageRepository
}

func (s *repoSink) Publish(ctx context.Context, msg model.Message) error {
	return s.repo.Create(ctx, &msg)
}

// failingSink drops everything, standing in for an unreachable broker.
type failingSink struct {
	err error
}

func (s *failingSink) Publish(context.Context, model.Message) error {
	return s.err
}

// fakeStreamer replays scripted fragments. When failAfter is non-negative it
// errors after forwarding that many fragments.
type fakeStreamer struct {
	fragments []string
	failAfter int
	err       error
}

func (f *fakeStreamer) StreamComplete(_ context.Context, _ ai.ChatConfig, _ []ai.ChatMessage, onChunk func(string) error) (string, error) {
	var full strings.Builder
	for i, fragment := range f.fragments {
		if f.err != nil && i == f.failAfter {
			return "", f.err
		}
		full.WriteString(fragment)
		if err := onChunk(fragment); err != nil {
			return "", err
		}
	}
	if f.err != nil && f.failAfter >= len(f.fragments) {
		return "", f.err
	}
	return full.String(), nil
}

type noRetriever struct{}

func (noRetriever) Retrieve(context.Context, string, int) []repository.RetrievedChunk {
	return nil
}
