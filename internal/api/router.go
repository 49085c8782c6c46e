package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/hybridation-api/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/hybridation-api/internal/api/middleware"
	"github.com/Conceptual-Machines/hybridation-api/internal/config"
	"github.com/Conceptual-Machines/hybridation-api/internal/generation"
	"github.com/Conceptual-Machines/hybridation-api/internal/metrics"
	"github.com/Conceptual-Machines/hybridation-api/internal/observability"
)

// Dependencies are the collaborators built in main.
type Dependencies struct {
	Generator handlers.Generator
	Shopper   handlers.Shopper
	Recorder  *metrics.Recorder
	Tracer    *observability.LangfuseClient
}

func SetupRouter(cfg *config.Config, deps Dependencies, version string) *gin.Engine {
	if deps.Recorder == nil {
		deps.Recorder = metrics.NewRecorder(nil, nil)
	}

	router := gin.New()
	if cfg.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = cfg.MaxUploadBytes
	}

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking, structured logging and request metrics
	router.Use(apimiddleware.RequestTracking(deps.Recorder))

	router.Use(apimiddleware.CORS(cfg.AllowedOrigins()))

	// Health checks
	healthHandler := handlers.NewHealthHandler(cfg.Flags())
	router.GET("/", healthHandler.Root)
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoints
	metricsHandler := handlers.NewMetricsHandler(version, cfg.Flags())
	router.GET("/api/metrics", metricsHandler.GetMetrics)
	router.GET("/metrics", metricsHandler.Prometheus())

	// Generation
	opts := handlers.GenerateOptions{
		MaxUploadBytes: cfg.MaxUploadBytes,
		Recorder:       deps.Recorder,
		Tracer:         deps.Tracer,
	}
	panoramic := handlers.NewGenerateHandler(deps.Generator, generation.Panoramic(), opts)
	standard := handlers.NewGenerateHandler(deps.Generator, generation.Standard(), opts)
	router.POST("/generate", panoramic.Generate)
	router.POST("/generate/standard", standard.Generate)

	// Visual shopping
	shopHandler := handlers.NewShopHandler(deps.Shopper, deps.Recorder)
	router.POST("/shop", shopHandler.Shop)

	return router
}
