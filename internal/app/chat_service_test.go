package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatbox/internal/ai"
	"chatbox/internal/model"
	"chatbox/internal/repository"
)

func newChatService(t *testing.T, streamer Streamer, sink MessageSink) (*ChatService, *repository.SessionRepository, *repository.MessageRepository) {
	t.Helper()

	db := newTestDB(t)
	sessionRepo := repository.NewSessionRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	if sink == nil {
		sink = &repoSink{repo: messageRepo}
	}

	svc := NewChatService(
		sessionRepo,
		messageRepo,
		sink,
		nil,
		noRetriever{},
		streamer,
		ai.ChatConfig{Model: "test"},
		6,
		5,
		testLogger(),
	)
	return svc, sessionRepo, messageRepo
}

func TestResolveSessionAllocatesFresh(t *testing.T) {
	svc, sessionRepo, _ := newChatService(t, &fakeStreamer{}, nil)
	ctx := context.Background()

	id, created := svc.ResolveSession(ctx, "")
	require.NotEmpty(t, id)
	assert.True(t, created)

	stored, err := sessionRepo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, id, stored.ID)
}

func TestResolveSessionUnknownIDGetsReplaced(t *testing.T) {
	svc, _, _ := newChatService(t, &fakeStreamer{}, nil)

	id, created := svc.ResolveSession(context.Background(), "not-a-known-session")
	assert.True(t, created)
	assert.NotEqual(t, "not-a-known-session", id)
}

func TestResolveSessionTouchesExisting(t *testing.T) {
	svc, sessionRepo, _ := newChatService(t, &fakeStreamer{}, nil)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	require.NoError(t, sessionRepo.Create(ctx, &model.Session{
		ID:           "existing",
		CreatedAt:    past,
		LastActivity: past,
	}))

	id, created := svc.ResolveSession(ctx, "existing")
	assert.Equal(t, "existing", id)
	assert.False(t, created)

	stored, err := sessionRepo.GetByID(ctx, "existing")
	require.NoError(t, err)
	assert.True(t, stored.LastActivity.After(past))
}

func TestStreamMessageEndToEnd(t *testing.T) {
	streamer := &fakeStreamer{fragments: []string{"Xin", " chào", " bạn"}}
	svc, _, messageRepo := newChatService(t, streamer, nil)
	ctx := context.Background()

	sessionID, created := svc.ResolveSession(ctx, "")
	require.True(t, created)

	var received []string
	full, err := svc.StreamMessage(ctx, sessionID, "Xin chào", func(chunk string) error {
		received = append(received, chunk)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Xin", " chào", " bạn"}, received)
	assert.Equal(t, "Xin chào bạn", full)

	messages, err := messageRepo.ListRecentBySessionID(ctx, sessionID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, model.RoleUser, messages[0].Role)
	assert.Equal(t, "Xin chào", messages[0].Content)
	assert.Equal(t, model.RoleAssistant, messages[1].Role)
	assert.Equal(t, "Xin chào bạn", messages[1].Content)
}

func TestStreamMessageRejectsEmptyBeforeSideEffects(t *testing.T) {
	svc, _, messageRepo := newChatService(t, &fakeStreamer{fragments: []string{"x"}}, nil)
	ctx := context.Background()

	for _, content := range []string{"", "   ", "\n\t"} {
		_, err := svc.StreamMessage(ctx, "some-session", content, func(string) error { return nil })
		assert.ErrorIs(t, err, ErrMessageEmpty)
	}

	count, err := messageRepo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStreamMessageMidStreamFailureDiscardsPartial(t *testing.T) {
	streamer := &fakeStreamer{
		fragments: []string{"Xin", " chào", " bạn"},
		failAfter: 2,
		err:       errors.New("upstream gone"),
	}
	svc, _, messageRepo := newChatService(t, streamer, nil)
	ctx := context.Background()

	sessionID, _ := svc.ResolveSession(ctx, "")

	var received []string
	_, err := svc.StreamMessage(ctx, sessionID, "Câu hỏi", func(chunk string) error {
		received = append(received, chunk)
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, []string{"Xin", " chào"}, received)

	// Only the user turn lands; the partial transcript is not persisted.
	messages, err := messageRepo.ListRecentBySessionID(ctx, sessionID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, model.RoleUser, messages[0].Role)
}

func TestStreamMessageSurvivesSinkFailure(t *testing.T) {
	streamer := &fakeStreamer{fragments: []string{"trả", " lời"}}
	svc, _, _ := newChatService(t, streamer, &failingSink{err: errors.New("broker down")})
	ctx := context.Background()

	sessionID, _ := svc.ResolveSession(ctx, "")

	full, err := svc.StreamMessage(ctx, sessionID, "Câu hỏi", func(string) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, "trả lời", full)
}

func TestRecentHistoryReturnsNewestAscending(t *testing.T) {
	svc, _, messageRepo := newChatService(t, &fakeStreamer{}, nil)
	ctx := context.Background()

	base := time.Now().Add(-time.Minute)
	for i, content := range []string{"t1", "t2", "t3"} {
		require.NoError(t, messageRepo.Create(ctx, &model.Message{
			ID:        content,
			SessionID: "s1",
			Role:      model.RoleUser,
			Content:   content,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	history := svc.RecentHistory(ctx, "s1", 2)
	require.Len(t, history, 2)
	assert.Equal(t, "t2", history[0].Content)
	assert.Equal(t, "t3", history[1].Content)
}

func TestClearHistoryIsIdempotent(t *testing.T) {
	svc, _, messageRepo := newChatService(t, &fakeStreamer{}, nil)
	ctx := context.Background()

	require.NoError(t, messageRepo.Create(ctx, &model.Message{
		ID:        "m1",
		SessionID: "s1",
		Role:      model.RoleUser,
		Content:   "hello",
		CreatedAt: time.Now(),
	}))

	require.NoError(t, svc.ClearHistory(ctx, "s1"))
	require.NoError(t, svc.ClearHistory(ctx, "s1"))

	history := svc.RecentHistory(ctx, "s1", 10)
	assert.Empty(t, history)
}

func TestStorageFailureKeepsSessionUsable(t *testing.T) {
	db := newTestDB(t)
	sessionRepo := repository.NewSessionRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	svc := NewChatService(
		sessionRepo,
		messageRepo,
		&failingSink{err: errors.New("broker unreachable")},
		nil,
		noRetriever{},
		&fakeStreamer{},
		ai.ChatConfig{Model: "test"},
		6,
		5,
		testLogger(),
	)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	ctx := context.Background()

	// A presented ID survives a failed lookup.
	id, created := svc.ResolveSession(ctx, "presented-id")
	assert.Equal(t, "presented-id", id)
	assert.False(t, created)

	// A fresh ID is still handed out when the insert fails.
	fresh, created := svc.ResolveSession(ctx, "")
	assert.NotEmpty(t, fresh)
	assert.True(t, created)

	assert.Empty(t, svc.RecentHistory(ctx, fresh, 10))
}
