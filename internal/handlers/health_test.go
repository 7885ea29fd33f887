package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type stubProber struct {
	connected  bool
	connectErr error
	connects   int
}

func (s *stubProber) IsConnected(context.Context) bool { return s.connected }

func (s *stubProber) Connect(ctx context.Context) error {
	s.connects++
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("expected a deadline")
	}
	if s.connectErr != nil {
		return s.connectErr
	}
	s.connected = true
	return nil
}

func serveHealth(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	r := gin.New()
	r.GET("/probe", handler)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))
	return w
}

func healthData(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Data
}

func TestHealthNeverDials(t *testing.T) {
	prober := &stubProber{}

	w := serveHealth(Health(prober))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, map[string]string{"status": "ok", "sftp": "disconnected"}, healthData(t, w))
	require.Zero(t, prober.connects)

	prober.connected = true
	w = serveHealth(Health(prober))
	require.Equal(t, "connected", healthData(t, w)["sftp"])

	w = serveHealth(Health(nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "disconnected", healthData(t, w)["sftp"])
}

func TestReadyConnectsWhenNeeded(t *testing.T) {
	prober := &stubProber{}

	w := serveHealth(Ready(prober))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ready", healthData(t, w)["status"])
	require.Equal(t, 1, prober.connects)

	w = serveHealth(Ready(prober))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, prober.connects, "an open session is reused")
}

func TestReadyReportsUnreachable(t *testing.T) {
	prober := &stubProber{connectErr: errors.New("dial tcp: connection refused")}

	w := serveHealth(Ready(prober))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Contains(t, w.Body.String(), "NOT_READY")
	require.NotContains(t, w.Body.String(), "connection refused")

	w = serveHealth(Ready(nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}
