package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"chatbox/internal/app"
	"chatbox/internal/transport/http/response"
)

const sessionCookieName = "sid"

type ChatHandler struct {
	chatService  *app.ChatService
	historyLimit int
	cookieMaxAge int
}

type ChatStreamRequest struct {
	Message string `json:"message" binding:"required"`
}

func NewChatHandler(chatService *app.ChatService, historyLimit, cookieMaxAgeDays int) *ChatHandler {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	if cookieMaxAgeDays <= 0 {
		cookieMaxAgeDays = 30
	}
	return &ChatHandler{
		chatService:  chatService,
		historyLimit: historyLimit,
		cookieMaxAge: cookieMaxAgeDays * 24 * 3600,
	}
}

// Stream handles one chat turn over SSE. Token events, the terminal done
// marker and error events are distinct JSON payload shapes.
func (h *ChatHandler) Stream(c *gin.Context) {
	var req ChatStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "message is required")
		return
	}

	sessionID := h.resolveSession(c)

	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-transform")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "stream not supported")
		return
	}

	_, err := h.chatService.StreamMessage(c.Request.Context(), sessionID, req.Message, func(chunk string) error {
		return writeSSE(c, flusher, gin.H{"token": chunk})
	})
	if err != nil {
		_ = writeSSE(c, flusher, gin.H{"error": "Chat service temporarily unavailable"})
		return
	}

	_ = writeSSE(c, flusher, gin.H{"done": true})
}

func (h *ChatHandler) History(c *gin.Context) {
	sessionID := h.resolveSession(c)
	messages := h.chatService.RecentHistory(c.Request.Context(), sessionID, h.historyLimit)
	response.OK(c, gin.H{
		"session_id": sessionID,
		"messages":   messages,
	})
}

func (h *ChatHandler) ClearHistory(c *gin.Context) {
	sessionID := h.resolveSession(c)
	if err := h.chatService.ClearHistory(c.Request.Context(), sessionID); err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "clear history failed")
		return
	}
	response.OK(c, gin.H{"cleared_session_id": sessionID})
}

// resolveSession reads the sid cookie and sets it when a fresh session was
// allocated. Must run before any body bytes are written.
func (h *ChatHandler) resolveSession(c *gin.Context) string {
	presented, _ := c.Cookie(sessionCookieName)
	sessionID, created := h.chatService.ResolveSession(c.Request.Context(), presented)
	if created {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookieName, sessionID, h.cookieMaxAge, "/", "", false, true)
	}
	return sessionID
}

func writeSSE(c *gin.Context, flusher http.Flusher, payload gin.H) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := c.Writer.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
