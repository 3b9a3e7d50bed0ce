package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"autobid/internal/auth"
	"autobid/internal/metrics"
	"autobid/utils"

	"github.com/gin-gonic/gin"
)

// RequestLoggerMiddleware tags the request with an ID and logs it with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()
	requestID := utils.RequestID(c.GetHeader(utils.RequestIDHeader))
	c.Header(utils.RequestIDHeader, requestID)

	c.Next() // process request

	utils.Info("HTTP Request", map[string]any{
		"request_id": requestID,
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"status":     c.Writer.Status(),
		"latency":    time.Since(start).String(),
	})
}

// MetricsMiddleware records request counts and latency by route template
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

type authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Principal, error)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// AuthMiddleware rejects requests without a valid bearer token
func AuthMiddleware(a authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			utils.AbortWithError(c, http.StatusUnauthorized, "Not authorized to access this route. Please provide a valid token.")
			return
		}

		principal, err := a.Authenticate(c.Request.Context(), token)
		if err != nil {
			status, message := utils.MapErrorToHTTP(err)
			utils.AbortWithError(c, status, message)
			return
		}

		auth.SetPrincipal(c, principal)
		c.Next()
	}
}

// OptionalAuthMiddleware attaches the caller when a valid token is present and never rejects
func OptionalAuthMiddleware(a authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			principal, err := a.Authenticate(c.Request.Context(), token)
			if err == nil {
				auth.SetPrincipal(c, principal)
			} else {
				utils.Debug("optional auth: ignoring invalid token", map[string]any{"error": err.Error()})
			}
		}
		c.Next()
	}
}
