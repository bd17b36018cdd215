// Package api serves the MindTrack HTTP surface.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spacesedan/mindtrack/internal/analysis"
	"github.com/spacesedan/mindtrack/internal/db"
	"github.com/spacesedan/mindtrack/internal/events"
	"github.com/spacesedan/mindtrack/internal/models"
)

const (
	SERVICE_NAME    = "mindtrack-api"
	SERVICE_TITLE   = "MindTrack AI Backend"
	SERVICE_VERSION = "1.0.0"

	DEFAULT_TIMELINE_DAYS = 30
)

// URLExtractor is satisfied by extractors.Service.
type URLExtractor interface {
	Extract(ctx context.Context, rawURL string) (*models.ExtractionResult, error)
	Platforms() []models.PlatformStatus
}

type Options struct {
	Analyzer      *analysis.Analyzer
	Extractor     URLExtractor
	Repository    db.Repository
	Publisher     events.Publisher
	ModelVersion  string
	MinTextLength int
	MaxTextLength int
	CORSOrigins   []string
}

type Handler struct {
	analyzer     *analysis.Analyzer
	extractor    URLExtractor
	repo         db.Repository
	publisher    events.Publisher
	modelVersion string
	bounds       textBounds
	now          func() time.Time
}

func NewHandler(opts Options) *Handler {
	publisher := opts.Publisher
	if publisher == nil {
		publisher = events.Noop()
	}
	return &Handler{
		analyzer:     opts.Analyzer,
		extractor:    opts.Extractor,
		repo:         opts.Repository,
		publisher:    publisher,
		modelVersion: opts.ModelVersion,
		bounds:       newTextBounds(opts.MinTextLength, opts.MaxTextLength),
		now:          time.Now,
	}
}

// NewRouter builds the gin engine with every route and middleware.
func NewRouter(opts Options) *gin.Engine {
	h := NewHandler(opts)

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(Recovery(), RequestLogger(), PrometheusMiddleware(SERVICE_NAME))

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(opts.CORSOrigins) == 0 || (len(opts.CORSOrigins) == 1 && opts.CORSOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = opts.CORSOrigins
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	legacy := router.Group("/api")
	{
		legacy.GET("/health", h.Health)
		legacy.GET("/platforms", h.Platforms)
		legacy.POST("/analyze/text", h.AnalyzeText)
		legacy.POST("/analyze/url", h.AnalyzeURL)
	}

	v1 := router.Group("/api/v1")
	{
		v1.POST("/analyze/text", h.ClassifyText)
		v1.GET("/timeline", h.Timeline)
		v1.GET("/stats", h.Stats)
		v1.DELETE("/clear", h.Clear)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorEnvelope("Endpoint not found"))
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, errorEnvelope("Method not allowed"))
	})

	return router
}

func errorEnvelope(message string) gin.H {
	return gin.H{"success": false, "error": message}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": SERVICE_TITLE,
		"version": SERVICE_VERSION,
	})
}
