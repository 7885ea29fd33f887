package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/charlesng35/sftpdrive/pkg/errors"
	"github.com/charlesng35/sftpdrive/pkg/response"
)

const readinessTimeout = 5 * time.Second

// SessionProber is the part of the drive client the health endpoints need.
type SessionProber interface {
	IsConnected(ctx context.Context) bool
	Connect(ctx context.Context) error
}

// Health returns a liveness payload including whether an SFTP session is currently open.
// It never dials.
func Health(prober SessionProber) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := "disconnected"
		if prober != nil && prober.IsConnected(c.Request.Context()) {
			state = "connected"
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok", "sftp": state})
	}
}

// Ready reports whether the remote server is reachable, opening a session if none is held.
func Ready(prober SessionProber) gin.HandlerFunc {
	return func(c *gin.Context) {
		if prober == nil {
			response.Error(c, apperrors.New("NOT_READY", "Drive is not configured", http.StatusServiceUnavailable))
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		if !prober.IsConnected(ctx) {
			if err := prober.Connect(ctx); err != nil {
				_ = c.Error(err)
				response.Error(c, apperrors.New("NOT_READY", "Remote server unreachable", http.StatusServiceUnavailable).WithInternal(err))
				return
			}
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ready"})
	}
}
