package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceMiddleware(t *testing.T) {
	log, buf := logger.NewTestLogger()

	var seenTrace string
	handler := NewTraceMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenTrace = shared.GetTraceID(r.Context())
		logger.FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/todos", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	require.Len(t, seenTrace, shared.TraceIDLength)

	entries, err := buf.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.Equal(t, seenTrace, e["trace_id"])
	}
	assert.Equal(t, "request completed", entries[2]["msg"])
	assert.EqualValues(t, http.StatusTeapot, entries[2]["status"])
}

func TestTraceMiddlewareReusesRequestID(t *testing.T) {
	log, _ := logger.NewTestLogger()

	var seenTrace string
	handler := chimw.RequestID(NewTraceMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenTrace = shared.GetTraceID(r.Context())
	})))

	req := httptest.NewRequest(http.MethodGet, "/todos", nil)
	req.Header.Set(chimw.RequestIDHeader, "upstream-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "upstream-42", seenTrace)
}
