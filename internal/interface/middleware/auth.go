package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/hazard-reporting/internal/application"
	"github.com/oksasatya/hazard-reporting/internal/domain/entity"
	"github.com/oksasatya/hazard-reporting/pkg/helpers"
)

const ctxIdentityKey = "identity"

// Credential returns the bearer token from the Authorization header, falling back to
// the access_token cookie.
func Credential(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
			return strings.TrimSpace(h[7:])
		}
		return ""
	}
	if tok, err := c.Cookie(helpers.AccessTokenCookie); err == nil {
		return tok
	}
	return ""
}

// Require runs the Gate before the handler. With no roles any authenticated user passes.
// The handler never runs on Unauthorized or Forbidden.
func Require(gate *application.Gate, roles ...entity.Role) gin.HandlerFunc {
	allowed := entity.NewRoleSet(roles...)
	return func(c *gin.Context) {
		id, err := gate.Authorize(c.Request.Context(), Credential(c), allowed)
		if err != nil {
			WriteError(c, gate.Logger, err)
			return
		}
		c.Set(ctxIdentityKey, id)
		c.Next()
	}
}

// OptionalAuth resolves the caller when a valid credential is present and otherwise
// continues anonymously.
func OptionalAuth(gate *application.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		cred := Credential(c)
		if cred == "" {
			c.Next()
			return
		}
		id, err := gate.Authorize(c.Request.Context(), cred, nil)
		if err != nil {
			if application.KindOf(err) != application.KindUnauthorized {
				WriteError(c, gate.Logger, err)
				return
			}
			c.Next()
			return
		}
		c.Set(ctxIdentityKey, id)
		c.Next()
	}
}

// IdentityFrom returns the identity set by Require or OptionalAuth.
func IdentityFrom(c *gin.Context) (application.Identity, bool) {
	v, ok := c.Get(ctxIdentityKey)
	if !ok {
		return application.Identity{}, false
	}
	id, ok := v.(application.Identity)
	return id, ok
}
