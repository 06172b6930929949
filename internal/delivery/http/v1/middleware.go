package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pwronski/go-taskboard/internal/auth"
)

const identityCtxKey = "identity"

// HandleAuthMiddleware extracts the bearer token, verifies it, and stores
// the resulting identity in the request context. Everything downstream can
// assume an authenticated caller.
func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	const authHeader = "Authorization"
	header := c.GetHeader(authHeader)
	if header == "" {
		h.logger.Error().Msg("authorization header required")
		abort(c, newUnauthorizedError("missing or invalid token"))
		return
	}

	const bearerPrefix = "Bearer"
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != bearerPrefix {
		h.logger.Error().Msg("invalid authorization header")
		abort(c, newUnauthorizedError("missing or invalid token"))
		return
	}

	identity, err := h.auth.Authenticate(parts[1])
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to authenticate token")
		abort(c, newUnauthorizedError("invalid token"))
		return
	}

	c.Set(identityCtxKey, identity)
	c.Next()
}

// identityFromContext returns the identity the auth middleware stored, or
// aborts with 401 if a protected handler somehow ran without it.
func (h *handlerImpl) identityFromContext(c *gin.Context) (auth.Identity, bool) {
	value, exists := c.Get(identityCtxKey)
	if !exists {
		h.logger.Error().Msg("no identity found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return auth.Identity{}, false
	}

	identity, ok := value.(auth.Identity)
	if !ok {
		h.logger.Error().Msg("malformed identity in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return auth.Identity{}, false
	}
	return identity, true
}
