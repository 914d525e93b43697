// Copyright (c) 2026 Hireline. All rights reserved.

package middleware_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireline/hireline/internal/platform/constants"
	"github.com/hireline/hireline/internal/platform/ctxutil"
	"github.com/hireline/hireline/internal/platform/middleware"
)

/*
TestRequestID verifies ID generation, propagation, and client override.
*/
func TestRequestID(t *testing.T) {
	t.Run("generates_when_missing", func(t *testing.T) {
		var seen string
		handler := middleware.RequestID()(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			seen = ctxutil.GetRequestID(request.Context())
		}))

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest("GET", "/", nil))

		require.NotEmpty(t, seen)
		assert.Equal(t, seen, recorder.Header().Get(constants.HeaderXRequestID))
	})

	t.Run("respects_client_provided", func(t *testing.T) {
		var seen string
		handler := middleware.RequestID()(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			seen = ctxutil.GetRequestID(request.Context())
		}))

		request := httptest.NewRequest("GET", "/", nil)
		request.Header.Set(constants.HeaderXRequestID, "client-supplied-id")
		handler.ServeHTTP(httptest.NewRecorder(), request)

		assert.Equal(t, "client-supplied-id", seen)
	})
}

/*
TestStructuredLogger verifies the per-request logger injection.
*/
func TestStructuredLogger(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	var injected *slog.Logger
	handler := middleware.StructuredLogger(logger)(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		injected = ctxutil.GetLogger(request.Context())
		writer.WriteHeader(http.StatusTeapot)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/roles", nil))

	// Downstream handlers must receive a request-scoped logger, not the default.
	require.NotNil(t, injected)
	assert.NotEqual(t, slog.Default(), injected)
}

// devConfig satisfies middleware.AppConfig for CORS tests.
type devConfig struct{ dev bool }

func (c devConfig) IsDevelopment() bool { return c.dev }

/*
TestCORS verifies origin allowance per environment and preflight short-circuit.
*/
func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)
	})

	t.Run("dev_allows_any_origin", func(t *testing.T) {
		handler := middleware.CORS(devConfig{dev: true})(next)

		request := httptest.NewRequest("GET", "/", nil)
		request.Header.Set(constants.HeaderOrigin, "http://localhost:3000")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		assert.Equal(t, "http://localhost:3000", recorder.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("prod_rejects_foreign_origin", func(t *testing.T) {
		handler := middleware.CORS(devConfig{dev: false})(next)

		request := httptest.NewRequest("GET", "/", nil)
		request.Header.Set(constants.HeaderOrigin, "https://evil.example.com")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight_short_circuits", func(t *testing.T) {
		handler := middleware.CORS(devConfig{dev: true})(next)

		request := httptest.NewRequest(http.MethodOptions, "/", nil)
		request.Header.Set(constants.HeaderOrigin, "https://app.hireline.app")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusNoContent, recorder.Code)
	})
}

/*
TestPanicRecovery verifies that a downstream panic becomes a 500, not a crash.
*/
func TestPanicRecovery(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	handler := middleware.PanicRecovery(logger)(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		panic("boom")
	}))

	recorder := httptest.NewRecorder()
	require.NotPanics(t, func() {
		handler.ServeHTTP(recorder, httptest.NewRequest("GET", "/", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "INTERNAL_SERVER_ERROR")
}

/*
TestRealIP verifies proxy header precedence.
*/
func TestRealIP(t *testing.T) {
	request := httptest.NewRequest("GET", "/", nil)
	request.RemoteAddr = "10.0.0.1:52000"
	assert.Equal(t, "10.0.0.1", middleware.RealIP(request))

	request.Header.Set(constants.HeaderXForwardedFor, "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", middleware.RealIP(request))

	request.Header.Set(constants.HeaderXRealIP, "198.51.100.9")
	assert.Equal(t, "198.51.100.9", middleware.RealIP(request))
}
