package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestServer_Endpoints(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "familiars_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	healthy := pingerFunc(func(context.Context) error { return nil })
	broken := pingerFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name       string
		checks     map[string]Pinger
		path       string
		wantStatus int
		wantBody   string
	}{
		{name: "healthz", path: "/healthz", wantStatus: http.StatusOK, wantBody: `"ok"`},
		{name: "ready", checks: map[string]Pinger{"database": healthy}, path: "/ready", wantStatus: http.StatusOK, wantBody: `"database":"ok"`},
		{name: "not ready", checks: map[string]Pinger{"database": healthy, "redis": broken}, path: "/ready", wantStatus: http.StatusServiceUnavailable, wantBody: "connection refused"},
		{name: "metrics", path: "/metrics", wantStatus: http.StatusOK, wantBody: "familiars_test_total 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer("", reg, tt.checks)
			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			require.Equal(t, tt.wantStatus, rec.Code)
			require.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestServer_ReadyReportsEveryCheck(t *testing.T) {
	srv := NewServer("", prometheus.NewRegistry(), map[string]Pinger{
		"database": pingerFunc(func(context.Context) error { return nil }),
		"redis":    pingerFunc(func(context.Context) error { return errors.New("down") }),
	})
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	var report map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Equal(t, map[string]string{"database": "ok", "redis": "down"}, report)
}
