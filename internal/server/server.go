// Package server exposes the dashboard views as a JSON backend for a web
// front end.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/finsight/internal/dashboard"
	"github.com/Veraticus/finsight/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// Server serves dashboard views over HTTP.
type Server struct {
	api           service.InferenceAPI
	store         service.Storage
	builder       *dashboard.Builder
	logger        *slog.Logger
	engine        *gin.Engine
	version       string
	tlsConfig     *tls.Config
	exposeDetails bool
}

// Option configures a Server.
type Option func(*Server)

// WithStorage enables the prediction history endpoint.
func WithStorage(store service.Storage) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithVersion sets the version reported by /health.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// WithTLS serves HTTPS with the given certificates.
func WithTLS(cfg *tls.Config) Option {
	return func(s *Server) {
		s.tlsConfig = cfg
	}
}

// New builds the router. The gin mode must be set before calling New.
func New(api service.InferenceAPI, builder *dashboard.Builder, opts ...Option) *Server {
	s := &Server{
		api:           api,
		builder:       builder,
		logger:        slog.Default(),
		version:       "dev",
		exposeDetails: gin.Mode() != gin.ReleaseMode,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(s.logger))

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api1 := r.Group("/api/v1")
	api1.Use(TraceID())
	api1.Use(Metrics())
	s.registerRoutes(api1)

	s.engine = r
	return s
}

func (s *Server) registerRoutes(r *gin.RouterGroup) {
	views := r.Group("/views")
	views.GET("/overview", s.overview)
	views.GET("/customer-analytics", s.customerAnalytics)
	views.GET("/customers/:id", s.customer)
	views.GET("/transaction-analytics", s.transactionAnalytics)
	views.GET("/churn", s.churn)
	views.POST("/churn/predict", s.predictChurn)
	views.GET("/fraud", s.fraud)
	views.GET("/segmentation", s.segmentation)
	views.GET("/model-insights", s.modelInsights)
	views.GET("/feature-engineering", s.featureEngineering)
	views.GET("/api-documentation", s.apiDocumentation)

	r.GET("/docs", s.docsHub)
	r.GET("/docs/:slug", s.docsPage)
	r.GET("/troubleshooting", s.troubleshooting)
	r.GET("/changelog", s.changelog)
	r.GET("/search", s.search)
	r.GET("/navigation", s.navigation)
	r.GET("/endpoints", s.apiDocumentation)

	r.POST("/probe", s.probe)
	r.GET("/history/predictions", s.predictionHistory)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is canceled, then drains connections.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		TLSConfig:         s.tlsConfig,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Dashboard backend started", "addr", addr, "tls", s.tlsConfig != nil)
		var err error
		if s.tlsConfig != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
