package main

import (
	"context"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/Conceptual-Machines/hybridation-api/internal/api"
	"github.com/Conceptual-Machines/hybridation-api/internal/config"
	"github.com/Conceptual-Machines/hybridation-api/internal/generation"
	"github.com/Conceptual-Machines/hybridation-api/internal/hosting"
	"github.com/Conceptual-Machines/hybridation-api/internal/llm"
	"github.com/Conceptual-Machines/hybridation-api/internal/metrics"
	"github.com/Conceptual-Machines/hybridation-api/internal/observability"
	"github.com/Conceptual-Machines/hybridation-api/internal/search"
	"github.com/Conceptual-Machines/hybridation-api/internal/shopping"
)

const sentryFlushTimeout = 2 * time.Second

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// GetVersion returns the current release version
func GetVersion() string {
	return releaseVersion
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	// Initialize Sentry
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          "hybridation-api@" + releaseVersion,
			EnableTracing:    true,
			TracesSampleRate: 1.0,
			EnableLogs:       true,
			Debug:            !cfg.IsProduction(),
			BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
				if event.Request != nil {
					event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
				}
				return event
			},
		}); err != nil {
			log.Printf("Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
			defer sentry.Flush(sentryFlushTimeout)
		}
	} else {
		log.Println("⚠️  Sentry not configured (SENTRY_DSN not set)")
	}

	ctx := context.Background()

	recorder := metrics.NewRecorder(metrics.NewClient(ctx, cfg.Environment), metrics.NewSentryMetrics())
	tracer := observability.InitializeLangfuse(ctx, cfg)

	orchestrator, err := buildOrchestrator(ctx, cfg, recorder)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to initialize providers: ", err)
	}

	shopper := shopping.NewService(
		hosting.NewLitterbox(cfg.ImageHostURL, cfg.ImageHostExpiry, cfg.UpstreamTimeout),
		buildSearcher(cfg),
		shopping.DefaultOptions(),
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.SetupRouter(cfg, api.Dependencies{
		Generator: orchestrator,
		Shopper:   shopper,
		Recorder:  recorder,
		Tracer:    tracer,
	}, GetVersion())

	log.Printf("🚀 Starting server on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to start server: ", err)
	}
}

func buildOrchestrator(ctx context.Context, cfg *config.Config, recorder *metrics.Recorder) (*generation.Orchestrator, error) {
	factory := llm.NewProviderFactory(cfg)
	primary, err := factory.Primary(ctx)
	if err != nil {
		return nil, err
	}
	secondary := factory.Secondary()

	switch {
	case primary == nil:
		log.Println("⚠️  GOOGLE_API_KEY not set, /generate will fail until configured")
	case secondary == nil:
		log.Println("⚠️  OPENAI_API_KEY not set, no fallback provider")
	default:
		log.Printf("✅ Providers: %s, fallback %s", primary.Name(), secondary.Name())
	}

	return generation.New(generation.Config{
		Primary:   primary,
		Secondary: secondary,
		Policy:    cfg.RetryPolicy(),
		Observer:  generation.Observers{recorder, observability.TraceObserver{}},
	}), nil
}

// buildSearcher returns nil when no SerpApi key is set so that /shop
// reports the missing key.
func buildSearcher(cfg *config.Config) shopping.Searcher {
	if cfg.SerpAPIAPIKey == "" {
		log.Println("⚠️  SERPAPI_API_KEY not set, /shop is disabled")
		return nil
	}
	return search.NewSerpAPI(cfg.SerpAPIURL, cfg.SerpAPIAPIKey, cfg.UpstreamTimeout)
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string)
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"x-api-key":     true,
	}

	for k, v := range headers {
		if sensitiveKeys[k] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
