// Package middleware holds gin middleware for the web server.
package middleware

import (
	"log"
	"net/http"

	"datastory/domain/core"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the request ID in both directions
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey is the gin context key holding the request ID
	RequestIDKey = "request_id"
)

// RequestID tags each request with an ID, reusing an incoming UUID header
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = core.NewID().String()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// MaxBodySize caps request bodies at mb megabytes. Reads past the limit fail
// with *http.MaxBytesError.
func MaxBodySize(mb int) gin.HandlerFunc {
	limit := int64(mb) << 20
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			log.Printf("[MaxBodySize] Rejecting %s %s: %d bytes exceeds %d MB", c.Request.Method, c.Request.URL.Path, c.Request.ContentLength, mb)
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "request body exceeds the upload limit",
				"code":  "INVALID_INPUT",
			})
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
