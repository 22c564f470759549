package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatbox/internal/ai"
	"chatbox/internal/model"
	"chatbox/internal/repository"
)

const systemPrompt = `Bạn là một trợ lý AI chuyên nghiệp cho cửa hàng trực tuyến. Nhiệm vụ của bạn là trả lời các câu hỏi về sản phẩm, dịch vụ và chính sách của cửa hàng, hỗ trợ khách hàng với thông tin chính xác và hữu ích.

Nguyên tắc: luôn lịch sự, thân thiện và chuyên nghiệp; trả lời ngắn gọn, súc tích và dễ hiểu; ưu tiên sử dụng thông tin từ tài liệu nội bộ khi có; nếu không chắc chắn về thông tin, hãy thành thật và đề xuất khách hàng liên hệ trực tiếp với bộ phận hỗ trợ.`

const closingInstruction = "Hãy trả lời một cách chuyên nghiệp, hữu ích và thân thiện. Nếu không chắc chắn về thông tin, hãy đề xuất khách hàng liên hệ trực tiếp với bộ phận hỗ trợ."

// MessageSink accepts a fully-formed message for persistence. The production
// sink publishes to the RabbitMQ persist queue so the caller-visible stream
// never blocks on storage.
type MessageSink interface {
	Publish(ctx context.Context, msg model.Message) error
}

type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID string) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, sessionID string, messages []model.Message) error
	DeleteHistory(ctx context.Context, sessionID string) error
	MarkDirty(ctx context.Context, sessionID string) error
	IsDirty(ctx context.Context, sessionID string) (bool, error)
}

type ContextRetriever interface {
	Retrieve(ctx context.Context, query string, limit int) []repository.RetrievedChunk
}

type Streamer interface {
	StreamComplete(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage, onChunk func(string) error) (string, error)
}

type ChatService struct {
	sessionRepo     *repository.SessionRepository
	messageRepo     *repository.MessageRepository
	sink            MessageSink
	historyCache    HistoryCache
	retriever       ContextRetriever
	llm             Streamer
	llmCfg          ai.ChatConfig
	maxHistoryTurns int
	retrievalLimit  int
	log             *zap.SugaredLogger
}

func NewChatService(
	sessionRepo *repository.SessionRepository,
	messageRepo *repository.MessageRepository,
	sink MessageSink,
	historyCache HistoryCache,
	retriever ContextRetriever,
	llm Streamer,
	llmCfg ai.ChatConfig,
	maxHistoryTurns int,
	retrievalLimit int,
	log *zap.SugaredLogger,
) *ChatService {
	if maxHistoryTurns <= 0 {
		maxHistoryTurns = 6
	}
	if retrievalLimit <= 0 {
		retrievalLimit = 5
	}
	return &ChatService{
		sessionRepo:     sessionRepo,
		messageRepo:     messageRepo,
		sink:            sink,
		historyCache:    historyCache,
		retriever:       retriever,
		llm:             llm,
		llmCfg:          llmCfg,
		maxHistoryTurns: maxHistoryTurns,
		retrievalLimit:  retrievalLimit,
		log:             log,
	}
}

// ResolveSession returns the session identifier for the request and whether
// it was freshly allocated. Storage failures are absorbed: the identifier
// stays usable for the current request even when the touch or create write
// did not land.
func (s *ChatService) ResolveSession(ctx context.Context, presentedID string) (string, bool) {
	now := time.Now()

	presentedID = strings.TrimSpace(presentedID)
	if presentedID != "" {
		existing, err := s.sessionRepo.GetByID(ctx, presentedID)
		if err != nil {
			s.log.Warnw("session lookup failed", "error", err)
			return presentedID, false
		}
		if existing != nil {
			if err := s.sessionRepo.Touch(ctx, presentedID, now); err != nil {
				s.log.Warnw("session touch failed", "error", err)
			}
			return presentedID, false
		}
	}

	id := uuid.NewString()
	session := &model.Session{ID: id, CreatedAt: now, LastActivity: now}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		s.log.Warnw("session create failed", "error", err)
	}
	return id, true
}

// StreamMessage runs one chat turn: enqueue the user message, assemble the
// prompt from retrieved context and recent history, stream model output
// through onChunk, and enqueue the final transcript as the assistant message.
// A mid-stream failure discards the partial transcript.
func (s *ChatService) StreamMessage(ctx context.Context, sessionID, content string, onChunk func(string) error) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrMessageEmpty
	}
	if sessionID == "" {
		return "", ErrInvalidInput
	}

	s.enqueueMessage(ctx, sessionID, model.RoleUser, content)

	chunks := s.retriever.Retrieve(ctx, content, s.retrievalLimit)
	history := s.RecentHistory(ctx, sessionID, s.maxHistoryTurns)
	prompt := buildPrompt(chunks, history, content)

	full, err := s.llm.StreamComplete(ctx, s.llmCfg, prompt, onChunk)
	if err != nil {
		return "", fmt.Errorf("stream completion failed: %w", err)
	}

	full = strings.TrimSpace(full)
	if full != "" {
		s.enqueueMessage(ctx, sessionID, model.RoleAssistant, full)
	}
	return full, nil
}

// RecentHistory returns up to limit messages in ascending order. Never fails
// the caller; storage errors degrade to an empty history.
func (s *ChatService) RecentHistory(ctx context.Context, sessionID string, limit int) []model.Message {
	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, sessionID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, sessionID); cacheErr == nil && hit {
				return trimMessages(cached, limit)
			}
		}
	}

	messages, err := s.messageRepo.ListRecentBySessionID(ctx, sessionID, limit)
	if err != nil {
		s.log.Warnw("history read failed", "error", err)
		return nil
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, sessionID); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, sessionID, messages)
		}
	}
	return messages
}

// ClearHistory deletes all messages of the session. Idempotent.
func (s *ChatService) ClearHistory(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrInvalidInput
	}
	if err := s.messageRepo.DeleteBySessionID(ctx, sessionID); err != nil {
		return err
	}
	if s.historyCache != nil {
		_ = s.historyCache.DeleteHistory(ctx, sessionID)
	}
	return nil
}

// enqueueMessage hands a message to the sink. Persistence failures are logged
// and swallowed; they must never abort an in-flight user-visible response.
func (s *ChatService) enqueueMessage(ctx context.Context, sessionID, role, content string) {
	msg := model.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if s.historyCache != nil {
		_ = s.historyCache.MarkDirty(ctx, sessionID)
		_ = s.historyCache.DeleteHistory(ctx, sessionID)
	}
	if err := s.sink.Publish(ctx, msg); err != nil {
		s.log.Errorw("message enqueue failed", "role", role, "error", err)
	}
}

func buildPrompt(chunks []repository.RetrievedChunk, history []model.Message, query string) []ai.ChatMessage {
	var contextText string
	if len(chunks) > 0 {
		parts := make([]string, 0, len(chunks))
		for i, chunk := range chunks {
			parts = append(parts, fmt.Sprintf("# Tài liệu %d\n%s", i+1, chunk.Content))
		}
		contextText = strings.Join(parts, "\n\n")
	}

	var historyText string
	if len(history) > 0 {
		lines := make([]string, 0, len(history))
		for _, msg := range history {
			label := "Khách hàng"
			if msg.Role == model.RoleAssistant {
				label = "Trợ lý"
			}
			lines = append(lines, label+": "+msg.Content)
		}
		historyText = strings.Join(lines, "\n")
	}

	sections := make([]string, 0, 4)
	if contextText != "" {
		sections = append(sections, "Thông tin từ tài liệu:\n"+contextText)
	}
	if historyText != "" {
		sections = append(sections, "Lịch sử hội thoại:\n"+historyText)
	}
	sections = append(sections, "Câu hỏi hiện tại: "+query)
	sections = append(sections, closingInstruction)

	return []ai.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: strings.Join(sections, "\n\n")},
	}
}

func trimMessages(messages []model.Message, limit int) []model.Message {
	if limit <= 0 || limit >= len(messages) {
		return messages
	}
	return messages[len(messages)-limit:]
}
