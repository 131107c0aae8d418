package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/lithammer/shortuuid/v4"
)

const (
	RequestIDHeader    = "X-Request-ID"
	requestIDCtxKey    = "request_id"
	maxRequestIDLength = 64
)

// RequestID берёт X-Request-ID клиента или выдаёт новый shortuuid
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = shortuuid.New()
		}

		c.Set(requestIDCtxKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDCtxKey)
}
