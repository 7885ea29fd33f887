package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/sftpdrive/pkg/errors"
	"github.com/charlesng35/sftpdrive/pkg/metrics"
	"github.com/charlesng35/sftpdrive/pkg/response"
)

// RequireScope checks that the authenticated token grants scope. It must run after Auth.
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !claims.HasScope(scope) {
			metrics.ScopeChecks.WithLabelValues(scope, "denied").Inc()
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}
		metrics.ScopeChecks.WithLabelValues(scope, "allowed").Inc()
		c.Next()
	}
}
