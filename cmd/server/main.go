package main

import (
	"context"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/mira/api/internal/agents"
	"github.com/mira/api/internal/approval"
	"github.com/mira/api/internal/artist"
	"github.com/mira/api/internal/config"
	"github.com/mira/api/internal/database"
	"github.com/mira/api/internal/handlers"
	"github.com/mira/api/internal/metrics"
	"github.com/mira/api/internal/middleware"
	"github.com/mira/api/internal/notify"
	"github.com/mira/api/internal/objects"
	"github.com/mira/api/internal/pipeline"
	"github.com/mira/api/internal/store"
)

func main() {
	ctx := context.Background()

	zapConfig := zap.NewProductionConfig()
	zapConfig.OutputPaths = []string{"stdout"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}
	logger, err := zapConfig.Build()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Mira API starting...",
		zap.String("version", "0.1.0"),
		zap.String("environment", os.Getenv("GO_ENV")),
	)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	rdb, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Review notifications degrade to log-only when NATS is down.
	var notifier approval.Notifier
	var natsCheck handlers.NATSChecker
	natsNotifier, err := notify.Connect(cfg.NATSURL, logger)
	if err != nil {
		logger.Error("failed to connect to NATS, review notifications disabled", zap.Error(err))
	} else {
		defer natsNotifier.Close()
		notifier = natsNotifier
		natsCheck = natsNotifier
	}

	openaiClient := openai.NewClient(option.WithAPIKey(cfg.OpenAIAPIKey))

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		logger.Fatal("failed to create genai client", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m := metrics.New(registry)

	st := store.New(db)
	objectStore := objects.NewStore(cfg.StorageURL, cfg.StorageBucket, cfg.StorageKey, logger)

	seed := cfg.PromptSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	prompts := artist.NewPromptBuilder(artist.PromptConfig{
		MaxTotalWords:          cfg.PromptMaxWords,
		IncludeKids:            cfg.IncludeKidsInCovers,
		KidLikenessProbability: cfg.KidLikenessProbability,
	}, rand.New(rand.NewSource(seed)))

	coverArtist := artist.NewAgent(
		newImageGenerator(cfg.ImagePrimaryVendor, cfg.ImagePrimaryModel, genaiClient, &openaiClient),
		newImageGenerator(cfg.ImageFallbackVendor, cfg.ImageFallbackModel, genaiClient, &openaiClient),
		prompts,
		objectStore,
		artist.Config{
			MaxAttempts:     cfg.ImageMaxAttempts,
			RetryDelay:      cfg.ImageRetryDelay,
			FallbackEnabled: cfg.ImageFallbackEnabled,
		},
		m,
		logger,
	)

	resolver := approval.NewResolver(st, rdb.Client(), notifier, logger)

	processor := pipeline.NewProcessor(
		agents.NewVisionAgent(genaiClient, cfg.VisionModel, logger),
		agents.NewStorytellerAgent(&openaiClient, cfg.StoryModel, logger),
		agents.NewVoiceAgent(&openaiClient, cfg.SpeechModel, cfg.SpeechVoice, logger),
		coverArtist,
		st,
		objectStore,
		resolver,
		pipeline.Config{DefaultCoverRef: cfg.DefaultCoverRef},
		m,
		logger,
	)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	healthHandler := handlers.NewHealthHandler(db, rdb, natsCheck)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/deep", healthHandler.DeepHealth)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	generationBreaker := middleware.NewCircuitBreaker()
	storiesHandler := handlers.NewStoriesHandler(st, objectStore, processor, generationBreaker, rdb.Client(), logger)
	kidsHandler := handlers.NewKidsHandler(st, logger)

	defaultLimiter := middleware.NewRateLimiter(100, 10, time.Minute)
	strictLimiter := middleware.NewRateLimiter(20, 2, time.Minute)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RateLimitMiddleware(defaultLimiter))
	{
		v1.GET("/kids/:id", kidsHandler.Get)
		v1.GET("/stories/:id", storiesHandler.Get)

		// Generation is expensive: stricter rate limit and a breaker fed by
		// pipeline outcomes.
		generate := v1.Group("/stories")
		generate.Use(middleware.RateLimitMiddleware(strictLimiter))
		generate.Use(middleware.CircuitBreakerMiddleware(generationBreaker))
		{
			generate.POST("", storiesHandler.Create)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited gracefully")
}

// newImageGenerator picks the concrete vendor once at startup; nothing past
// construction branches on vendor names.
func newImageGenerator(vendor, model string, genaiClient *genai.Client, openaiClient *openai.Client) artist.ImageGenerator {
	switch vendor {
	case "openai":
		return artist.NewOpenAIGenerator(openaiClient, model)
	default:
		return artist.NewGoogleGenerator(genaiClient, model)
	}
}
