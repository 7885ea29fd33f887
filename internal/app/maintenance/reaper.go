// Package maintenance runs background housekeeping for the drive gateway.
package maintenance

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/charlesng35/sftpdrive/pkg/logger"
)

const defaultReapSpec = "@every 1m"

// IdleCloser is implemented by drive clients that can drop an unused session.
type IdleCloser interface {
	CloseIdle(idle time.Duration) (bool, error)
}

// Reaper periodically closes the SFTP session once it has been idle for too long.
type Reaper struct {
	target   IdleCloser
	idle     time.Duration
	schedule string
	cron     *cron.Cron
	log      *zap.Logger
}

// Option customises the Reaper.
type Option func(*Reaper)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(r *Reaper) {
		if c != nil {
			r.cron = c
		}
	}
}

// WithSchedule overrides the cron specification for idle checks.
func WithSchedule(spec string) Option {
	return func(r *Reaper) {
		if spec != "" {
			r.schedule = spec
		}
	}
}

// WithLogger sets the logger used for reap events.
func WithLogger(log *zap.Logger) Option {
	return func(r *Reaper) {
		if log != nil {
			r.log = log
		}
	}
}

// NewReaper constructs a Reaper. A non-positive idle duration disables it.
func NewReaper(target IdleCloser, idle time.Duration, opts ...Option) *Reaper {
	r := &Reaper{
		target:   target,
		idle:     idle,
		schedule: defaultReapSpec,
		log:      logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.cron == nil {
		r.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return r
}

// Enabled reports whether Start will schedule anything.
func (r *Reaper) Enabled() bool {
	return r.target != nil && r.idle > 0
}

// Start registers the idle check with the scheduler and launches it.
func (r *Reaper) Start() error {
	if !r.Enabled() {
		return nil
	}

	if _, err := r.cron.AddFunc(r.schedule, func() {
		if _, err := r.RunOnce(); err != nil {
			r.log.Warn("idle session reap failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	r.cron.Start()
	r.log.Info("idle session reaper started", zap.String("schedule", r.schedule), zap.Duration("idle", r.idle))
	return nil
}

// Stop halts the underlying scheduler, waiting for any running check to complete.
func (r *Reaper) Stop() context.Context {
	if r.cron == nil {
		return context.Background()
	}
	return r.cron.Stop()
}

// RunOnce performs a single idle check.
func (r *Reaper) RunOnce() (bool, error) {
	if !r.Enabled() {
		return false, errors.New("maintenance: reaper disabled")
	}
	closed, err := r.target.CloseIdle(r.idle)
	if closed {
		r.log.Debug("idle session reaped")
	}
	return closed, err
}
