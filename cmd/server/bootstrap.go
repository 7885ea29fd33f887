package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/sftpdrive/internal/api"
	"github.com/charlesng35/sftpdrive/internal/app"
	"github.com/charlesng35/sftpdrive/internal/app/maintenance"
	iauth "github.com/charlesng35/sftpdrive/internal/auth"
	"github.com/charlesng35/sftpdrive/internal/cache"
	"github.com/charlesng35/sftpdrive/internal/drive"
	"github.com/charlesng35/sftpdrive/internal/middleware"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	Client *drive.Client
	JWT    *iauth.JWTService
	Reaper *maintenance.Reaper
	Redis  *cache.RedisClient
	Router *gin.Engine
}

// bootstrapRuntime builds the drive client, background jobs, and the HTTP router.
// No connection is opened here; the first request or readiness probe dials.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger, opts ...drive.Option) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(log)
		}
	}()

	// enable gin debug mod
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	connCfg, err := cfg.SFTP.ConnectionConfig()
	if err != nil {
		return nil, err
	}

	stack.Client, err = drive.New(connCfg, append([]drive.Option{drive.WithLogger(log.Named("drive"))}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("initialise drive client: %w", err)
	}

	if cfg.Auth.Enabled() {
		stack.JWT, err = iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
		if err != nil {
			return nil, fmt.Errorf("initialise jwt service: %w", err)
		}
	} else {
		log.Warn("auth.jwt.secret is empty; drive routes are unauthenticated")
	}

	stack.Reaper = maintenance.NewReaper(stack.Client, cfg.SFTP.IdleTimeout,
		maintenance.WithSchedule(cfg.SFTP.ReapSchedule),
		maintenance.WithLogger(log.Named("maintenance")),
	)
	if err := stack.Reaper.Start(); err != nil {
		return nil, fmt.Errorf("start idle reaper: %w", err)
	}

	var routerOpts []api.Option
	if cfg.Cache.Redis.Enabled {
		if stack.Redis, err = cache.NewRedisClient(ctx, cfg.Cache.RedisClientConfig()); err != nil {
			log.Warn("redis unavailable; rate limits stay in process memory", zap.Error(err))
		} else {
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
			routerOpts = append(routerOpts, api.WithRateStore(middleware.NewCounterRateStore(stack.Redis)))
		}
	}

	stack.Router, err = api.NewRouter(cfg, stack.Client, stack.JWT, routerOpts...)
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown stops background jobs and closes the SFTP session and Redis connection.
func (s *runtimeStack) Shutdown(log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Reaper != nil {
		<-s.Reaper.Stop().Done()
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn("redis shutdown", zap.Error(err))
		}
	}

	if s.Client != nil {
		if err := s.Client.Disconnect(); err != nil {
			log.Warn("sftp disconnect", zap.Error(err))
		}
	}
}
