package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mercatto/catalog/internal/adapters/http/handlers"
	"github.com/mercatto/catalog/internal/core/domain"
	"github.com/mercatto/catalog/internal/core/logger"
	"github.com/mercatto/catalog/internal/core/port"
	"github.com/mercatto/catalog/internal/core/serviceerrors"
)

// PrincipalKey is where the authenticated principal lives in the gin context.
const PrincipalKey = "principal"

// Authorize verifies the bearer credential and enforces a role check before
// the handler runs. A missing or invalid token aborts with 401; a valid token
// whose principal lacks every listed role aborts with 403.
func Authorize(verifier port.TokenVerifier, roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			handlers.HandleError(c, serviceerrors.NewUnauthenticatedError("missing or malformed Authorization header"))
			c.Abort()
			return
		}

		principal, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			logger.Warn(c.Request.Context(), "auth: token verification failed", map[string]any{
				"path": c.FullPath(),
			})
			handlers.HandleError(c, serviceerrors.NewUnauthenticatedError("invalid token"))
			c.Abort()
			return
		}

		if len(roles) > 0 && !principal.HasAnyRole(roles...) {
			handlers.HandleError(c, serviceerrors.NewForbiddenError("insufficient role"))
			c.Abort()
			return
		}

		c.Set(PrincipalKey, principal)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// PrincipalFromContext returns the principal stored by Authorize, if any.
func PrincipalFromContext(c *gin.Context) (*domain.Principal, bool) {
	value, ok := c.Get(PrincipalKey)
	if !ok {
		return nil, false
	}
	principal, ok := value.(*domain.Principal)
	return principal, ok
}
