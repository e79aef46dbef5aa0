// Package middleware provides fiber middleware for authentication, logging, metrics and tracing.
package middleware

import (
	"context"
	"errors"

	"stocktalk/internal/auth"
	"stocktalk/internal/models"
	"stocktalk/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// Fiber locals set by AuthRequired.
const (
	LocalUserID   = "userID"
	LocalIdentity = "identity"
)

// AuthRequired enforces a valid bearer token. A missing token is 401, a token
// that fails verification is 403. The verified identity is stored in locals and
// the user id is copied to the request context for logging.
func AuthRequired(tokens *auth.TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := tokens.Authenticate(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			if errors.Is(err, auth.ErrMissingToken) {
				observability.AuthFailures.WithLabelValues("missing_token").Inc()
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Token is missing"))
			}
			observability.AuthFailures.WithLabelValues("invalid_token").Inc()
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Invalid token"))
		}

		c.Locals(LocalUserID, identity.UserID)
		c.Locals(LocalIdentity, identity)
		c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, identity.UserID))

		return c.Next()
	}
}

// CurrentIdentity returns the identity stored by AuthRequired.
func CurrentIdentity(c *fiber.Ctx) (auth.Identity, bool) {
	identity, ok := c.Locals(LocalIdentity).(auth.Identity)
	return identity, ok
}
