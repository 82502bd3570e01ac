package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kitapunya/expense-backend/internal/auth"
	"github.com/kitapunya/expense-backend/internal/logging"
)

// OptionalIdentity verifies a bearer token when one is sent and stores the
// identity on the request. Missing or invalid tokens never block the request.
func OptionalIdentity(v auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" || v == nil {
			c.Next()
			return
		}

		id, err := v.Verify(c.Request.Context(), token)
		if err != nil {
			logging.New(c.Request.Context()).Warnf("optional_auth", "ignoring token: %v", err)
			c.Next()
			return
		}

		auth.SetIdentity(c, id)
		c.Next()
	}
}

// extractToken extracts the Bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return strings.TrimSpace(bearerToken[7:])
	}
	return ""
}
