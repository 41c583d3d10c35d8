package delivery

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"attrgo/internal/delivery/middleware"
	"attrgo/pkg/logger"
	"attrgo/pkg/metrics"
)

type HTTPRouter struct {
	handlers       *HTTPHandlers
	logger         *logger.Logger
	metrics        *metrics.Metrics
	requestTimeout time.Duration
}

func NewHTTPRouter(handlers *HTTPHandlers, logger *logger.Logger, metrics *metrics.Metrics, requestTimeout time.Duration) *HTTPRouter {
	return &HTTPRouter{
		handlers:       handlers,
		logger:         logger,
		metrics:        metrics,
		requestTimeout: requestTimeout,
	}
}

func (r *HTTPRouter) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.Recovery(r.logger))
	router.Use(middleware.Metrics(r.metrics))
	router.Use(middleware.Timeout(r.requestTimeout))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}

	router.Use(cors.New(corsConfig))

	// Health endpoint
	router.GET("/health", r.handlers.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Touchpoint ingestion
		v1.POST("/touchpoints", r.handlers.IngestTouchpoints)

		// Attribution endpoints
		attribution := v1.Group("/attribution")
		{
			attribution.POST("/compute", r.handlers.ComputeAttribution)
			attribution.POST("/recalculate", r.handlers.RecalculateRun)
			attribution.GET("/results", r.handlers.ListResults)
			attribution.GET("/results/:conversion_id", r.handlers.GetResult)
			attribution.GET("/summary", r.handlers.GetSummary)
		}

		// Config endpoints
		configs := v1.Group("/configs")
		{
			configs.POST("", r.handlers.CreateConfig)
			configs.GET("/:id", r.handlers.GetConfig)
			configs.PUT("/:id", r.handlers.UpdateConfig)
		}

		// Export endpoints
		export := v1.Group("/export")
		{
			export.POST("/run", r.handlers.ExportRun)
		}
	}

	// Prometheus metrics endpoint
	router.GET("/metrics", middleware.PrometheusHandler())

	return router
}
