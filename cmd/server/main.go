package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"voicehook/internal/config"
	"voicehook/internal/extract"
	"voicehook/internal/telegram"
	"voicehook/internal/transcribe"
	"voicehook/internal/webhook"
	"voicehook/pkg/cache"
	"voicehook/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env file first
	_ = godotenv.Load()

	// Initialize the logger first
	debug := true
	if err := logger.Init(debug); err != nil {
		panic("Failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	logger.Info("Starting voicehook service")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
		return
	}

	if cfg.Telegram.Token == "" {
		logger.Fatal("TELEGRAM_BOT_TOKEN environment variable is required")
		return
	}
	if cfg.OpenAI.APIKey == "" {
		logger.Fatal("OPENAI_API_KEY environment variable is required")
		return
	}

	// Ensure downloads directory exists
	if err := os.MkdirAll(cfg.Downloads.Dir, 0o755); err != nil {
		logger.Fatal("Failed to create downloads directory", zap.Error(err))
		return
	}

	// Initialize Telegram relay client
	relay, err := telegram.NewClient(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal("Failed to initialize Telegram client", zap.Error(err))
		return
	}

	logger.Info("Telegram client initialized")

	// Initialize transcription and extraction clients
	stt := transcribe.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.WhisperModel)
	extractor := extract.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.GPTModel)

	logger.Info("Upstream clients initialized",
		zap.String("whisper_model", cfg.OpenAI.WhisperModel),
		zap.String("gpt_model", cfg.OpenAI.GPTModel))

	// Optional Redis result cache
	var resultCache cache.Cache
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, 24*time.Hour)
		if err != nil {
			logger.Warn("Redis unavailable, result cache disabled", zap.Error(err))
		} else {
			resultCache = redisCache
			defer redisCache.Close()
			logger.Info("Redis cache connection established")
		}
	}

	handler := webhook.NewHandler(relay, stt, extractor, resultCache, cfg.Downloads.Dir, cfg.Transcription.Language)
	server := webhook.NewServer(cfg.Server.Addr, handler)

	// Register the webhook before serving traffic if a public URL is set
	if cfg.Webhook.BaseURL != "" {
		if _, err := relay.SetWebhook(cfg.Webhook.BaseURL); err != nil {
			logger.Fatal("Failed to register webhook", zap.Error(err))
			return
		}
	} else {
		logger.Warn("WEBHOOK_URL not set; register manually via POST /set-webhook?url=<public base url>")
	}

	// Start server in a goroutine
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.Server.Addr))
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	logger.Info("Service shutdown complete")
}
