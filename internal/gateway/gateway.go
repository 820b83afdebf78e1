// Package gateway serves configured summarize locations over HTTP and relays
// each request to a summarizer daemon group.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/danmuck/summarizer/internal/config"
	"github.com/danmuck/summarizer/internal/observability"
	"github.com/danmuck/summarizer/internal/protocol"
	"github.com/danmuck/summarizer/internal/upstream"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const nodeName = "smrzr-gate"

// Summarizer runs one exchange with a daemon group. *upstream.Client
// implements it.
type Summarizer interface {
	Summarize(ctx context.Context, req protocol.Request) (*upstream.Response, error)
}

type Gateway struct {
	cfg       config.Config
	router    *gin.Engine
	ready     atomic.Bool
	startedAt time.Time
}

// New builds a gateway with one upstream client per location.
func New(cfg config.Config) (*Gateway, error) {
	return newGateway(cfg, func(loc config.Location) (Summarizer, error) {
		return upstream.NewClient(loc.Pass, cfg.Upstreams[loc.Pass], loc.Upstream)
	})
}

func newGateway(cfg config.Config, build func(config.Location) (Summarizer, error)) (*Gateway, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)

	g := &Gateway{cfg: cfg, router: gin.New(), startedAt: time.Now()}
	g.router.Use(gin.Recovery())
	g.router.Use(observability.RequestLogger(log.Logger, config.ReservedPaths...))
	g.router.Use(observability.RequestMetricsMiddleware(nodeName))
	if len(cfg.CorsOrigins) > 0 {
		g.router.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.CorsOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodHead},
			AllowHeaders:  []string{"Origin", "Content-Type"},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        12 * time.Hour,
		}))
	}

	g.router.GET("/health", g.health)
	g.router.GET("/ready", g.readiness)
	g.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	for _, loc := range cfg.Locations {
		client, err := build(loc)
		if err != nil {
			return nil, fmt.Errorf("gateway: location %s: %w", loc.Path, err)
		}
		g.router.Any(loc.Path, locationHandler(loc, client))
		log.Info().
			Str("path", loc.Path).
			Str("upstream", loc.Pass).
			Str("next_upstream", loc.Upstream.NextUpstream.String()).
			Msg("location registered")
	}
	g.ready.Store(true)
	return g, nil
}

func (g *Gateway) Handler() http.Handler {
	return g.router
}

// Run serves on cfg.Listen until ctx is cancelled, then drains in-flight
// requests for up to five seconds.
func (g *Gateway) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              g.cfg.Listen,
		Handler:           g.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("listen", g.cfg.Listen).Int("locations", len(g.cfg.Locations)).Msg("gateway listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	g.ready.Store(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("gateway: shutdown: %w", err)
	}
	log.Info().Msg("gateway stopped")
	return nil
}

func (g *Gateway) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"uptime":  time.Since(g.startedAt).String(),
		"service": nodeName,
	})
}

func (g *Gateway) readiness(c *gin.Context) {
	if !g.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "draining"})
		return
	}
	upstreams := make(map[string]int, len(g.cfg.Upstreams))
	for name, servers := range g.cfg.Upstreams {
		upstreams[name] = len(servers)
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "upstreams": upstreams})
}
