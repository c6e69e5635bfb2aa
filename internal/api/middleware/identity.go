package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/domain/bundle"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/id"
)

// Request headers
const (
	CallingUIDHeader = "X-Calling-Uid"
	RequestIDHeader  = "X-Request-Id"
)

const requestIDKey = "request_id"

// CallingUID copies the X-Calling-Uid header into the request context so
// user resolution can derive the calling user. A malformed header is
// rejected; a missing one leaves the context untouched.
func CallingUID() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(CallingUIDHeader)
		if raw == "" {
			c.Next()
			return
		}
		uid, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || uid < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "invalid " + CallingUIDHeader + " header",
			})
			return
		}
		c.Request = c.Request.WithContext(bundle.WithCallingUID(c.Request.Context(), int32(uid)))
		c.Next()
	}
}

// RequestID propagates X-Request-Id or assigns a fresh one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if rid == "" {
			rid = id.NewRequestID().String()
		}
		c.Set(requestIDKey, rid)
		c.Header(RequestIDHeader, rid)
		c.Next()
	}
}

// GetRequestID returns the request id assigned by RequestID
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// Logger logs each request with zap
func Logger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", GetRequestID(c)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Error("Request failed", fields...)
		case c.Writer.Status() >= http.StatusBadRequest:
			log.Warn("Request rejected", fields...)
		default:
			log.Debug("Request served", fields...)
		}
	}
}
