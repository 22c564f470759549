package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"chatbox/internal/bootstrap"
	"chatbox/internal/platform/logger"
	httptransport "chatbox/internal/transport/http"
)

func main() {
	_ = godotenv.Load()

	zlog, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		log.Fatalf("build logger failed: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx := context.Background()

	app, err := bootstrap.New(ctx, zlog)
	if err != nil {
		zlog.Fatalw("bootstrap failed", "error", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			zlog.Errorw("close resources failed", "error", err)
		}
	}()

	router := httptransport.NewRouter(app)
	server := &http.Server{
		Addr:              app.Config.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		zlog.Infow("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatalw("server failed", "error", err)
		}
	}()

	waitForShutdown(server, zlog)
}

func waitForShutdown(server *http.Server, zlog *zap.SugaredLogger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Errorw("server shutdown failed", "error", err)
	}
}
