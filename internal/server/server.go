// Package server serves the blog over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"

	"spacetraveling/internal/config"
	"spacetraveling/internal/metrics"
	"spacetraveling/internal/pages"
	"spacetraveling/internal/views"
)

const defaultLoadTimeout = 30 * time.Second

type Options struct {
	BaseURL          string
	ListingTTL       time.Duration
	PostTTL          time.Duration
	RevalidateSecret string
	// LoadTimeout bounds a shared load-more. Defaults to 30s.
	LoadTimeout time.Duration
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

type Server struct {
	blog        Blog
	views       views.Store
	invalidator Invalidator
	pages       *pages.Pages
	logger      *slog.Logger
	metrics     *metrics.Metrics
	opts        Options
	now         func() time.Time

	// loads collapses concurrent load-more submits per view id
	loads singleflight.Group
}

// New creates a server. Router builds its handler and Run serves it.
func New(
	blog Blog,
	store views.Store,
	invalidator Invalidator,
	p *pages.Pages,
	logger *slog.Logger,
	m *metrics.Metrics,
	opts Options,
) *Server {
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = defaultLoadTimeout
	}

	return &Server{
		blog:        blog,
		views:       store,
		invalidator: invalidator,
		pages:       p,
		logger:      logger.With("component", "server"),
		metrics:     m,
		opts:        opts,
		now:         time.Now,
	}
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), requestLogger(s.logger))
	router.SetHTMLTemplate(s.pages.Template())

	router.GET("/", s.handleHome)
	router.POST("/views", s.handleCreateView)
	router.POST("/views/:id/more", s.handleLoadMore)
	router.GET("/post/:slug", s.handlePost)
	router.GET("/feed.xml", s.handleFeed)
	router.GET(pages.LogoPath, s.handleLogo)
	router.POST("/api/revalidate", s.handleRevalidate)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(s.opts.Metrics))
	}

	router.NoRoute(func(c *gin.Context) {
		c.HTML(http.StatusNotFound, pages.NotFoundTemplate, pages.NotFound())
	})

	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		s.logger.Info("http server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}

	s.logger.Info("http server stopped")
	return nil
}
