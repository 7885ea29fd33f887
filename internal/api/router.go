package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/charlesng35/sftpdrive/internal/app"
	iauth "github.com/charlesng35/sftpdrive/internal/auth"
	"github.com/charlesng35/sftpdrive/internal/drive"
	"github.com/charlesng35/sftpdrive/internal/handlers"
	"github.com/charlesng35/sftpdrive/internal/middleware"
)

// DriveService is what the router needs from the drive client.
type DriveService interface {
	drive.Driver
	handlers.SessionProber
}

// Option customises router construction.
type Option func(*options)

type options struct {
	rateStore middleware.RateStore
}

// WithRateStore replaces the in-memory rate limit store.
func WithRateStore(store middleware.RateStore) Option {
	return func(o *options) {
		o.rateStore = store
	}
}

// NewRouter builds the Gin engine, wires middleware and registers the drive routes.
// jwt may be nil only when cfg.Auth is disabled.
func NewRouter(cfg *app.Config, client DriveService, jwt *iauth.JWTService, opts ...Option) (*gin.Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if client == nil {
		return nil, fmt.Errorf("drive client must be provided")
	}
	if cfg.Auth.Enabled() && jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided when auth is enabled")
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())

	registerHealthRoutes(r, cfg, client)
	registerMetricsRoute(r, cfg)
	registerDriveRoutes(r, cfg, client, jwt, o)

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}

func registerHealthRoutes(r *gin.Engine, cfg *app.Config, prober handlers.SessionProber) {
	if !cfg.Monitoring.Health.Enabled {
		return
	}
	r.GET("/health", handlers.Health(prober))
	r.GET("/health/ready", handlers.Ready(prober))
}

func registerMetricsRoute(r *gin.Engine, cfg *app.Config) {
	if !cfg.Monitoring.Prometheus.Enabled {
		return
	}
	endpoint := strings.TrimSpace(cfg.Monitoring.Prometheus.Endpoint)
	if endpoint == "" {
		endpoint = "/metrics"
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	r.GET(endpoint, gin.WrapH(promhttp.Handler()))
}

func registerDriveRoutes(r *gin.Engine, cfg *app.Config, client drive.Driver, jwt *iauth.JWTService, o options) {
	h := handlers.NewDriveHandler(client, cfg.Server.MaxUploadBytes)

	group := r.Group("/api/drive")
	if cfg.Auth.Enabled() {
		group.Use(middleware.Auth(jwt))
	}
	group.Use(middleware.RateLimit(o.rateStore, cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window))

	read := scope(cfg, iauth.ScopeRead)
	write := scope(cfg, iauth.ScopeWrite)

	group.GET("/files", read, h.Read)
	group.PUT("/files", write, h.Write)
	group.DELETE("/files", write, h.Delete)
	group.GET("/exists", read, h.Exists)
	group.GET("/stat", read, h.Stat)
	group.GET("/list", read, h.List)
	group.POST("/copy", write, h.Copy)
	group.POST("/move", write, h.Move)
}

// scope is a no-op when auth is disabled since there are no claims to check.
func scope(cfg *app.Config, name string) gin.HandlerFunc {
	if !cfg.Auth.Enabled() {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.RequireScope(name)
}
