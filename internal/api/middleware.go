package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"event-notifications/internal/common/auth"
	"event-notifications/internal/common/errors"
	"event-notifications/internal/common/logger"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// TokenParser validates bearer tokens.
type TokenParser interface {
	Parse(token string) (auth.Principal, error)
}

// RequestRecorder receives one observation per handled request.
type RequestRecorder interface {
	RecordRequest(ctx context.Context, route string, status int, duration time.Duration)
}

// Authenticate requires a valid bearer token and stores the caller in the
// request context.
func Authenticate(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			respondError(c, errors.NewUnauthorizedError("missing Authorization header"))
			return
		}

		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			respondError(c, errors.NewUnauthorizedError("expected a Bearer token"))
			return
		}

		p, err := parser.Parse(token)
		if err != nil {
			respondError(c, errors.NewUnauthorizedError(err.Error()))
			return
		}

		c.Set(principalKey, p)
		c.Next()
	}
}

// RequireAdmin rejects callers without the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !principal(c).IsAdmin() {
			respondError(c, errors.NewForbiddenError("admin role required"))
			return
		}
		c.Next()
	}
}

func principal(c *gin.Context) auth.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(auth.Principal); ok {
			return p
		}
	}
	return auth.Principal{}
}

// RequestLogger writes one access log line per request.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := map[string]interface{}{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"duration":  time.Since(start).String(),
			"client_ip": c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			log.Error("Request failed", fields)
		case status >= http.StatusBadRequest:
			log.Warn("Request rejected", fields)
		default:
			log.Info("Request processed", fields)
		}
	}
}

// Recovery turns panics into a 500 response.
func Recovery(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("Panic recovered", map[string]interface{}{
					"method": c.Request.Method,
					"path":   c.Request.URL.Path,
					"panic":  r,
				})
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
					"code":  errors.ErrCodeInternal,
				})
			}
		}()
		c.Next()
	}
}

// Metrics reports request counts and latency by route template.
func Metrics(rec RequestRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rec == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		rec.RecordRequest(c.Request.Context(), route, c.Writer.Status(), time.Since(start))
	}
}
