package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/temirov/codeecho/internal/metrics"
)

const (
	tokenContextKey = "github_token"
	unmatchedRoute  = "unmatched"
)

var authorizationSchemes = []string{"token", "bearer"}

// requestLogger logs every request once it completes.
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		duration := time.Since(start)

		s.logger.Info("http request",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", duration),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		)
		return nil
	}
}

// requestMetrics records request counts and latency by route pattern.
func requestMetrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		route := c.Path()
		if route == "" {
			route = unmatchedRoute
		}
		metrics.RecordHTTPRequest(c.Request().Method, route, c.Response().Status, time.Since(start))
		return nil
	}
}

// requireToken rejects requests without credentials before any upstream call.
func requireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := extractToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if token == "" {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		}
		c.Set(tokenContextKey, token)
		return next(c)
	}
}

// extractToken accepts "token <t>" and "Bearer <t>" authorization values.
func extractToken(authorization string) string {
	scheme, credentials, found := strings.Cut(strings.TrimSpace(authorization), " ")
	if !found {
		return ""
	}
	for _, supportedScheme := range authorizationSchemes {
		if strings.EqualFold(scheme, supportedScheme) {
			return strings.TrimSpace(credentials)
		}
	}
	return ""
}
