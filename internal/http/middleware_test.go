package http

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLoggerAttachesScopedLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	var scoped *slog.Logger
	handler := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scoped = LoggerFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/u1/requests", nil))

	require.NotNil(t, scoped)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	out := buf.String()
	assert.Contains(t, out, `"msg":"request started"`)
	assert.Contains(t, out, `"msg":"request completed"`)
	assert.Contains(t, out, `"path":"/users/u1/requests"`)
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"request_id":1`)
}

func TestRecovererReturns500(t *testing.T) {
	handler := Recoverer(slog.New(slog.NewTextHandler(io.Discard, nil)))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "An internal error occurred.")
}

func TestMaxBodyBytesRejectsLargeBodies(t *testing.T) {
	f := newFixture()
	handler := MaxBodyBytes(16)(f.handler)

	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"name":"`+strings.Repeat("x", 64)+`"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
