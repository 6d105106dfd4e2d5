package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/campus-clubs/backend/pkg/response"
)

// RequireAuthority allows only site-wide authorities. Call after JWT.
func RequireAuthority() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := Principal(c)
		if !ok {
			response.Unauthorized(c, msgAuthRequired)
			c.Abort()
			return
		}
		if !p.IsAuthority() {
			response.Forbidden(c, "Authority access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireMember allows only club member tokens (admins included). Call after JWT.
func RequireMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := Principal(c)
		if !ok {
			response.Unauthorized(c, msgAuthRequired)
			c.Abort()
			return
		}
		if !p.IsMember() {
			response.Forbidden(c, "Club member access required")
			c.Abort()
			return
		}
		c.Next()
	}
}
