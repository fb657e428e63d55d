package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/tkserver/internal/metrics"
)

func TestLoggingRecordsStatusAndCount(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	before := promtest.ToFloat64(metrics.AdminRequests.WithLabelValues(http.MethodGet, "418"))

	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	assert.Equal(t, before+1, promtest.ToFloat64(metrics.AdminRequests.WithLabelValues(http.MethodGet, "418")))
	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"size":15`)
	assert.Contains(t, buf.String(), `"path":"/api/v1/status"`)
}

func TestLoggingQuietPathsAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := Logging(logger, "/metrics")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Empty(t, buf.String())

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/other", nil))
	assert.Contains(t, buf.String(), `"status":200`)
}

func TestRecoveryUsesHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	before := promtest.ToFloat64(metrics.AdminPanics)

	var got any
	h := Recovery(logger, func(w http.ResponseWriter, _ *http.Request, err any) {
		got = err
		w.WriteHeader(http.StatusServiceUnavailable)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "boom", got)
	assert.Equal(t, before+1, promtest.ToFloat64(metrics.AdminPanics))
}

func TestRecoveryDefaultHandler(t *testing.T) {
	h := Recovery(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestRecoveryRepanicsOnAbort(t *testing.T) {
	h := Recovery(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	require.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
