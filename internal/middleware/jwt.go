package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campus-clubs/backend/internal/access"
	"github.com/campus-clubs/backend/pkg/response"
)

const (
	// ContextPrincipal is the key for the authenticated access.Principal in gin context.
	ContextPrincipal = "principal"
)

const (
	msgAuthRequired = "Authentication required. Please login."
	msgInvalidToken = "Invalid or expired token. Please login again."
)

// TokenValidator verifies a bearer token and returns the caller identity.
type TokenValidator interface {
	ValidatePrincipal(token string) (access.Principal, error)
}

func bearer(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", true
	}
	return strings.TrimSpace(parts[1]), true
}

// JWT returns a middleware that validates the bearer token and stores the principal in context.
// A missing token is 401; a malformed, invalid or expired token is 403.
func JWT(v TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, present := bearer(c)
		if !present {
			response.Unauthorized(c, msgAuthRequired)
			c.Abort()
			return
		}
		if token == "" {
			response.Forbidden(c, msgInvalidToken)
			c.Abort()
			return
		}
		p, err := v.ValidatePrincipal(token)
		if err != nil {
			response.Forbidden(c, msgInvalidToken)
			c.Abort()
			return
		}
		c.Set(ContextPrincipal, p)
		c.Next()
	}
}

// Principal returns the authenticated caller. ok is false on routes without JWT.
func Principal(c *gin.Context) (access.Principal, bool) {
	v, ok := c.Get(ContextPrincipal)
	if !ok {
		return access.Principal{}, false
	}
	p, ok := v.(access.Principal)
	return p, ok
}

// MustPrincipal returns the authenticated caller; only valid behind JWT.
func MustPrincipal(c *gin.Context) access.Principal {
	return c.MustGet(ContextPrincipal).(access.Principal)
}
