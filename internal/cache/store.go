// Package cache holds counters shared between gateway replicas.
package cache

import (
	"context"
	"time"
)

// Counter increments fixed-window counters.
type Counter interface {
	// IncrementWithTTL bumps key and returns the new count together with the time left in
	// the window. The window starts on the first increment.
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}
