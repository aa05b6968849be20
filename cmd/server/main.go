package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"travelchat/internal/catalog"
	"travelchat/internal/config"
	"travelchat/internal/handler"
	"travelchat/internal/logger"
	"travelchat/internal/repository"
	"travelchat/internal/service"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	// Print version info
	log.Printf("Travel Listing Chat")
	log.Printf("Version: %s", Version)
	log.Printf("Build Time: %s", BuildTime)
	log.Printf("Git Commit: %s", GitCommit)

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Dataset
	manifest, err := catalog.LoadManifest(cfg.Dataset.Manifest)
	if err != nil {
		log.Fatalf("Failed to load column manifest: %v", err)
	}
	source, err := repository.NewSource(cfg.Dataset)
	if err != nil {
		log.Fatalf("Failed to configure dataset source: %v", err)
	}
	store := repository.NewDatasetStore(repository.NewLoader(source, manifest), cfg.Dataset.LoadTimeout)

	if cfg.Dataset.Eager {
		snap, err := store.Warm(context.Background())
		if err != nil {
			slog.Warn("⚠️  Dataset failed to load at startup, will retry on first request",
				"source", source.Name(), "error", err)
		} else {
			slog.Info("✅ Dataset loaded",
				"source", snap.Source, "rows", snap.Table.Len(), "columns", snap.Schema.Len())
		}
	} else {
		log.Printf("Dataset %s will load on first request", source.Name())
	}

	// Translation client is built on first use
	translators := service.NewTranslatorHandle(service.NewOpenAITranslatorFactory(cfg.LLM))
	if cfg.LLM.APIKey == "" {
		log.Println("⚠️  No LLM API key set - only the firstcall query will work")
		log.Println("   Set LLM_API_KEY (or GROQ_API_KEY / OPENAI_API_KEY) to enable filtering")
	} else {
		log.Printf("   - API Base: %s", cfg.LLM.APIBase)
		log.Printf("   - Model: %s", cfg.LLM.Model)
		log.Printf("   - Temperature: %.2f", cfg.LLM.Temperature)
		log.Printf("   - MaxTokens: %d", cfg.LLM.MaxTokens)
	}

	chatService := service.NewChatService(store, translators, cfg.LLM.Timeout)
	log.Println("✅ Services initialized")

	chatHandler := handler.NewChatHandler(chatService)
	router := handler.NewRouter(cfg, chatHandler, store, handler.BuildInfo{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("🚀 Starting server on %s", srv.Addr)
	log.Printf("📝 Chat endpoint: http://localhost:%d/chat", cfg.Server.Port)

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown", "error", err)
	}
	log.Println("✅ Server stopped")
}
