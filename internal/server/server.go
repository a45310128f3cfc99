// Package server exposes the health, metrics, relay and direct analysis endpoints over gin.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	commonhttp "admissions-workers/internal/common/http"
	"admissions-workers/internal/common/logger"
	"admissions-workers/internal/models"
	"admissions-workers/internal/providers"
)

const (
	defaultLMStudioBaseURL = "http://localhost:1234/v1"
	defaultRelayTimeout    = 30 * time.Second
	maxUploadBytes         = 25 << 20
)

// Analyzer is the slice of the orchestrator the HTTP surface needs.
type Analyzer interface {
	Analyze(ctx context.Context, quiz models.QuizResponse, settings models.Settings) *models.AnalysisResult
	Transcribe(ctx context.Context, audio providers.Audio, settings models.Settings) (*models.TranscriptionResult, error)
}

// ResultStore keeps analysis results per session.
type ResultStore interface {
	Save(ctx context.Context, sessionID string, result *models.AnalysisResult) error
	Get(ctx context.Context, sessionID string) (*models.AnalysisResult, error)
}

// Check is one readiness probe, e.g. the Zeebe topology or a Redis ping.
type Check func(ctx context.Context) error

type Options struct {
	Analyzer        Analyzer
	Store           ResultStore
	SiteURL         string
	LMStudioBaseURL string
	RelayTimeout    time.Duration
	Checks          map[string]Check
	Logger          logger.Logger
	// Mode is a gin mode: debug, release or test.
	Mode string
}

type Server struct {
	engine   *gin.Engine
	http     *http.Server
	analyzer Analyzer
	store    ResultStore
	relay    *commonhttp.Client
	siteURL  string
	lmstudio string
	checks   map[string]Check
	logger   logger.Logger
}

func New(opts Options) *Server {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	relayTimeout := opts.RelayTimeout
	if relayTimeout <= 0 {
		relayTimeout = defaultRelayTimeout
	}
	lmstudio := opts.LMStudioBaseURL
	if lmstudio == "" {
		lmstudio = defaultLMStudioBaseURL
	}

	s := &Server{
		engine:   gin.New(),
		analyzer: opts.Analyzer,
		store:    opts.Store,
		relay:    commonhttp.NewClient(relayTimeout),
		siteURL:  opts.SiteURL,
		lmstudio: lmstudio,
		checks:   opts.Checks,
		logger:   log.With(map[string]interface{}{"component": "http"}),
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.engine
	r.GET("/health", s.health)
	r.GET("/ready", s.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/lmstudio", s.relayLMStudio)
		api.POST("/lmstudio", s.relayLMStudio)

		analyze := api.Group("/analyze")
		{
			analyze.POST("", s.analyze)
			analyze.GET("/:sessionId", s.getAnalysis)
		}

		api.POST("/transcribe", s.transcribe)
		api.GET("/share/:sessionId", s.share)
	}
}

// Handler returns the routed engine.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("HTTP server listening", map[string]interface{}{"address": addr})
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).Milliseconds(),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			s.logger.Warn("request failed", fields)
			return
		}
		s.logger.Debug("request served", fields)
	}
}
