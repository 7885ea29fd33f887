package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/sftpdrive/internal/auth"
	"github.com/charlesng35/sftpdrive/pkg/errors"
	"github.com/charlesng35/sftpdrive/pkg/response"
)

const (
	CtxClaimsKey  = "authClaims"
	CtxSubjectKey = "subject"
)

// Auth enforces JWT authentication using the supplied JWT service.
func Auth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		token := strings.TrimSpace(authz[7:])
		claims, err := jwt.ValidateAccessToken(token)
		if err != nil {
			// Normalise all validation failures to 401
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxSubjectKey, claims.Subject)

		c.Next()
	}
}

// ClaimsFrom returns the claims stored by Auth, if any.
func ClaimsFrom(c *gin.Context) (*iauth.Claims, bool) {
	v, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*iauth.Claims)
	return claims, ok && claims != nil
}
