package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"calagent/internal/api/router"
	"calagent/internal/calendar"
	"calagent/internal/chat"
	appconfig "calagent/internal/config"
	"calagent/internal/conversation"
	"calagent/internal/observability/metrics"
	"calagent/pkg/logging"
	"calagent/web"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	if cfg.Env == "development" {
		logger = logging.NewText(cfg.LogLevel)
	}
	logger.Info("starting calagent API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"mock_calendar", cfg.CalendarMockMode,
	)

	ctx := context.Background()

	chatMetrics := metrics.NewChatMetrics(nil)

	calendarClient := buildCalendarClient(ctx, cfg, logger)
	sessionStore := buildSessionStore(cfg, logger)
	llm := buildLLMClient(ctx, cfg, logger, chatMetrics)

	// Gemini pins its model at construction; the request model id is only
	// read by the Bedrock fallback.
	extractor := conversation.NewExtractor(llm, cfg.BedrockModelID, nil, logger)
	orchestrator := conversation.NewOrchestrator(conversation.OrchestratorParams{
		Store:             sessionStore,
		Extractor:         extractor,
		Calendar:          calendarClient,
		Metrics:           chatMetrics,
		Logger:            logger,
		SlotDuration:      cfg.SlotDuration,
		WorkingHoursStart: cfg.WorkingHoursStart,
		WorkingHoursEnd:   cfg.WorkingHoursEnd,
		MaxOfferedSlots:   cfg.MaxOfferedSlots,
	})

	chatHandler := chat.NewHandler(orchestrator, sessionStore, chatMetrics, web.WidgetJS, web.IndexHTML, logger)

	r := router.New(&router.Config{
		ChatHandler:    chatHandler,
		MetricsHandler: promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildCalendarClient picks the deterministic mock in mock mode or when no
// Google credentials are configured.
func buildCalendarClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) calendar.Client {
	if cfg.CalendarMockMode || cfg.CalendarCredentialsPath == "" {
		if !cfg.CalendarMockMode {
			logger.Warn("no Google Calendar credentials configured, falling back to mock calendar")
		}
		return calendar.NewMockClient(nil, logger)
	}

	client, err := calendar.NewGoogleClient(ctx, cfg.CalendarCredentialsPath, cfg.CalendarID, logger)
	if err != nil {
		logger.Error("failed to create Google Calendar client", "error", err)
		os.Exit(1)
	}
	logger.Info("google calendar client ready", "calendar_id", cfg.CalendarID)
	return client
}

// buildSessionStore wires Redis when configured, in-memory otherwise.
func buildSessionStore(cfg *appconfig.Config, logger *logging.Logger) conversation.Store {
	if cfg.SessionStore != "redis" {
		logger.Info("using in-memory session store")
		return conversation.NewMemoryStore(nil)
	}

	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Error("failed to connect to Redis", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}

	logger.Info("using Redis session store", "addr", cfg.RedisAddr)
	return conversation.NewRedisStore(client, nil, otel.Tracer("calagent/sessions"))
}

// buildLLMClient wires Gemini as the primary provider with Bedrock as the
// optional fallback.
func buildLLMClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, m *metrics.ChatMetrics) conversation.LLMClient {
	if cfg.GeminiAPIKey == "" {
		logger.Error("GEMINI_API_KEY is required")
		os.Exit(1)
	}

	primary, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
	if err != nil {
		logger.Error("failed to create Gemini client", "error", err)
		os.Exit(1)
	}

	var fallback conversation.LLMClient
	if cfg.BedrockModelID != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		fallback = conversation.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg))
		logger.Info("bedrock fallback enabled", "model_id", cfg.BedrockModelID, "region", cfg.AWSRegion)
	} else {
		logger.Warn("no BEDROCK_MODEL_ID configured, running without LLM fallback")
	}

	client := conversation.NewFallbackLLMClient(primary, fallback, cfg.LLMTimeout, logger)
	client.OnFallback(m.ObserveLLMFallback)
	return client
}
