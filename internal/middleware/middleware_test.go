package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SergeiKhy/ulvis-relay/internal/metrics"
	"github.com/SergeiKhy/ulvis-relay/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func okHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestRateLimiter_Middleware проверяет лимит по IP
func TestRateLimiter_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: 5,
		BurstSize:         5,
		CleanupInterval:   time.Minute,
	})
	defer rl.Stop()

	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/test", okHandler)

	// Первые 5 запросов в пределах burst
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		assert.Equal(t, http.StatusOK, serve(router, req).Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := serve(router, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), `"error":"rate_limit_exceeded"`)

	// Другой IP получает свой bucket
	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	assert.Equal(t, http.StatusOK, serve(router, req).Code)
}

// TestRateLimiter_MiddlewareWithKey лимит по кастомному ключу
func TestRateLimiter_MiddlewareWithKey(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: 2,
		BurstSize:         2,
		CleanupInterval:   time.Minute,
	})
	defer rl.Stop()

	router := gin.New()
	router.Use(rl.MiddlewareWithKey(func(c *gin.Context) string {
		return c.GetHeader("X-User-ID")
	}))
	router.GET("/test", okHandler)

	request := func(user string) int {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-User-ID", user)
		return serve(router, req).Code
	}

	assert.Equal(t, http.StatusOK, request("user1"))
	assert.Equal(t, http.StatusOK, request("user1"))
	assert.Equal(t, http.StatusTooManyRequests, request("user1"))
	assert.Equal(t, http.StatusOK, request("user2"))
}

// TestAPIKey_Middleware проверяет аутентификацию по API ключу
func TestAPIKey_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(middleware.RequireAPIKey(map[string]string{
		"test-key-1": "Test Key 1",
		"test-key-2": "Test Key 2",
	}))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"owner": middleware.APIKeyName(c)})
	})

	// Без ключа
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := serve(router, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "missing_api_key")

	// Невалидный ключ
	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-API-Key", "invalid-key")
	w = serve(router, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_api_key")

	// Заголовок
	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-API-Key", "test-key-2")
	w = serve(router, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"owner":"Test Key 2"`)

	// Query параметр
	req = httptest.NewRequest(http.MethodGet, "/test?api_key=test-key-1", nil)
	assert.Equal(t, http.StatusOK, serve(router, req).Code)

	// Bearer токен
	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer test-key-1")
	assert.Equal(t, http.StatusOK, serve(router, req).Code)
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(middleware.RequestID())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, middleware.GetRequestID(c))
	})

	// Новый id
	w := serve(router, httptest.NewRequest(http.MethodGet, "/test", nil))
	generated := w.Header().Get(middleware.RequestIDHeader)
	require.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	// id клиента сохраняется
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(middleware.RequestIDHeader, "client-id-1")
	w = serve(router, req)
	assert.Equal(t, "client-id-1", w.Header().Get(middleware.RequestIDHeader))

	// слишком длинный id заменяется
	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(middleware.RequestIDHeader, strings.Repeat("x", 100))
	w = serve(router, req)
	assert.NotEqual(t, strings.Repeat("x", 100), w.Header().Get(middleware.RequestIDHeader))
}

func TestAccessLog(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zap.InfoLevel)
	m := metrics.New()

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.AccessLog(zap.New(core), m))
	router.GET("/test", okHandler)
	router.GET("/fail", func(c *gin.Context) {
		c.Status(http.StatusBadGateway)
	})

	serve(router, httptest.NewRequest(http.MethodGet, "/test", nil))
	serve(router, httptest.NewRequest(http.MethodGet, "/fail", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, "/test", entries[0].ContextMap()["path"])
	assert.EqualValues(t, http.StatusOK, entries[0].ContextMap()["status"])
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)

	// метрики видны на /metrics
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `path="/test"`)
}
