package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	apiKeyHeader     = "X-API-Key"
	apiKeyNameCtxKey = "api_key_name"
)

// APIKeyConfig конфигурация API key аутентификации
type APIKeyConfig struct {
	// ValidKeys ключ -> имя владельца
	ValidKeys  map[string]string
	HeaderName string
}

type APIKey struct {
	config APIKeyConfig
}

func NewAPIKey(config APIKeyConfig) *APIKey {
	if config.HeaderName == "" {
		config.HeaderName = apiKeyHeader
	}
	return &APIKey{config: config}
}

// Middleware принимает ключ из заголовка, query параметра api_key или Authorization: Bearer
func (ak *APIKey) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := extractKey(c, ak.config.HeaderName)
		if key == "" {
			abortUnauthorized(c, "missing_api_key", "API key required: pass it in "+ak.config.HeaderName+", api_key or Authorization: Bearer")
			return
		}

		name, ok := ak.lookup(key)
		if !ok {
			abortUnauthorized(c, "invalid_api_key", "Invalid API key")
			return
		}

		c.Set(apiKeyNameCtxKey, name)
		c.Next()
	}
}

// lookup сравнивает в constant time с каждым ключом
func (ak *APIKey) lookup(key string) (string, bool) {
	for valid, name := range ak.config.ValidKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(valid)) == 1 {
			return name, true
		}
	}
	return "", false
}

func extractKey(c *gin.Context, header string) string {
	if key := c.GetHeader(header); key != "" {
		return key
	}
	if key := c.Query("api_key"); key != "" {
		return key
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

func abortUnauthorized(c *gin.Context, kind, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   kind,
		"message": message,
	})
}

// RequireAPIKey middleware для защищённых роутов
func RequireAPIKey(validKeys map[string]string) gin.HandlerFunc {
	return NewAPIKey(APIKeyConfig{ValidKeys: validKeys}).Middleware()
}

// APIKeyName имя владельца ключа, если запрос прошёл аутентификацию
func APIKeyName(c *gin.Context) string {
	return c.GetString(apiKeyNameCtxKey)
}
