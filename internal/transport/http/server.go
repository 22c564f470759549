package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"chatbox/internal/ai"
	appsvc "chatbox/internal/app"
	"chatbox/internal/bootstrap"
	"chatbox/internal/cache"
	"chatbox/internal/platform/rabbitmq"
	"chatbox/internal/repository"
	"chatbox/internal/transport/http/handler"
	"chatbox/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	sessionRepo := repository.NewSessionRepository(app.MySQL)
	messageRepo := repository.NewMessageRepository(app.MySQL)
	docRepo := repository.NewDocumentRepository(app.MySQL)
	chunkRepo := repository.NewDocumentChunkRepository(app.MySQL)

	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)
	publisher := rabbitmq.NewMessagePublisher(app.MQConn, app.Config.RabbitMQ.MessagePersistQueue)

	llmClient := ai.NewClient(time.Duration(app.Config.LLM.TimeoutSeconds) * time.Second)
	chatCfg := ai.ChatConfig{
		BaseURL: app.Config.LLM.BaseURL,
		APIKey:  app.Config.LLM.APIKey,
		Model:   app.Config.LLM.Model,
	}
	embCfg := ai.EmbeddingConfig{
		BaseURL: app.Config.LLM.BaseURL,
		APIKey:  app.Config.LLM.APIKey,
		Model:   app.Config.LLM.EmbeddingModel,
	}

	retrievalService := appsvc.NewRetrievalService(chunkRepo, app.Config.Ingest.MinTermLength, app.Log)
	chatService := appsvc.NewChatService(
		sessionRepo,
		messageRepo,
		publisher,
		historyCache,
		retrievalService,
		llmClient,
		chatCfg,
		app.Config.Chat.MaxHistoryTurns,
		app.Config.Chat.RetrievalLimit,
		app.Log,
	)

	var embedder appsvc.ChunkEmbedder
	if app.Config.LLM.APIKey != "" {
		embedder = llmClient
	}
	docService := appsvc.NewDocumentService(
		docRepo,
		chunkRepo,
		embedder,
		embCfg,
		app.Config.Ingest.ChunkMaxTokens,
		app.Config.Ingest.ChunkOverlap,
		app.Log,
	)
	statsService := appsvc.NewStatsService(sessionRepo, messageRepo, docRepo, chunkRepo)

	chatHandler := handler.NewChatHandler(chatService, app.Config.Chat.HistoryPageLimit, app.Config.Chat.CookieMaxAgeDays)
	docHandler := handler.NewDocumentHandler(docService, app.Config.Upload.Dir, app.Config.Upload.MaxSizeMB, app.Log)
	adminHandler := handler.NewAdminHandler(statsService)

	api := router.Group("/api")

	chatGroup := api.Group("/chat")
	chatGroup.POST("/sse", chatHandler.Stream)
	chatGroup.GET("/history", chatHandler.History)
	chatGroup.DELETE("/history", chatHandler.ClearHistory)

	adminGuard := middleware.RequireAdmin(app.Config.Admin.Token)
	uploadGroup := api.Group("/upload", adminGuard)
	uploadGroup.POST("", docHandler.Upload)
	uploadGroup.GET("/list", docHandler.List)
	uploadGroup.GET("/:id", docHandler.Get)
	uploadGroup.DELETE("/:id", docHandler.Delete)

	adminGroup := api.Group("/admin", adminGuard)
	adminGroup.GET("/stats", adminHandler.Stats)

	return router
}
