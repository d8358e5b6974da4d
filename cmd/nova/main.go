package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/satriahrh/nova/adapters/audio"
	"github.com/satriahrh/nova/adapters/contextstore"
	"github.com/satriahrh/nova/adapters/llm"
	"github.com/satriahrh/nova/adapters/stt"
	"github.com/satriahrh/nova/adapters/tts"
	"github.com/satriahrh/nova/domain/repositories"
	"github.com/satriahrh/nova/internal/config"
	"github.com/satriahrh/nova/internal/gateway"
	"github.com/satriahrh/nova/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Configuration invalid", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := audio.Initialize(); err != nil {
		logger.Fatal("Audio host initialization failed", zap.Error(err))
	}
	defer audio.Terminate()

	// Initialize adapters
	recognizer := stt.NewGoogleRecognizer(logger)

	var synthesizer repositories.SpeechSynthesizer
	offline := tts.NewEspeakSynthesizer(logger)
	if cfg.ElevenLabsAPIKey != "" {
		primary, err := tts.NewElevenLabsSynthesizer(tts.ElevenLabsConfig{APIKey: cfg.ElevenLabsAPIKey}, logger)
		if err != nil {
			logger.Fatal("Synthesis configuration invalid", zap.Error(err))
		}
		synthesizer = tts.NewFallbackSynthesizer(primary, offline, logger)
	} else {
		logger.Warn("ELEVEN_LABS_API_KEY is not set, speaking through the offline engine only")
		synthesizer = offline
	}

	replies, err := llm.NewGeminiReplyGenerator(ctx, llm.GeminiConfig{
		APIKey:    cfg.GeminiAPIKey,
		ProjectID: cfg.GeminiProjectID,
	}, logger)
	if err != nil {
		logger.Fatal("AI service unavailable", zap.Error(err))
	}

	store := contextstore.NewFileStore(afero.NewOsFs(), cfg.ContextPath, logger)

	// Initialize the interaction state machine
	controller := usecase.NewListenController(usecase.Dependencies{
		Capturer:    audio.NewCapturer(afero.NewMemMapFs(), logger),
		Recognizer:  recognizer,
		Synthesizer: synthesizer,
		Player:      audio.NewPlayer(logger),
		Replies:     replies,
		Summarizer:  replies,
		Store:       store,
	}, usecase.Options{
		Language: cfg.Language,
		Devices:  cfg.Devices(),
	}, logger)
	go controller.Run(ctx)

	// Initialize WebSocket hub for the avatar UI
	hub := gateway.NewHub(controller, logger)
	go hub.Run(ctx)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize API routes
	gateway.InitRoutes(e, hub, controller, audio.Lister{}, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(cfg.ListenAddr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Nova is listening for its UI", zap.String("addr", cfg.ListenAddr))

	<-ctx.Done()

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
