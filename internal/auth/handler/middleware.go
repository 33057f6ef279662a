package handler

import (
	"strings"

	"github.com/careledger/auth-service/internal/auth/domain"
	"github.com/careledger/auth-service/internal/auth/service"
	autherror "github.com/careledger/auth-service/internal/errors"
	"github.com/gofiber/fiber/v2"
)

const principalKey = "principal"

// RequireAuth extracts the session token (cookie first, then a Bearer
// header) and attaches the verified principal to the request.
func (h *AuthHandler) RequireAuth(c *fiber.Ctx) error {
	token := extractToken(c)
	if token == "" {
		return h.fail(c, autherror.ErrMissingToken)
	}

	claims, err := h.tokens.Verify(token)
	if err != nil {
		return h.fail(c, autherror.ErrInvalidToken)
	}

	c.Locals(principalKey, claims)

	return c.Next()
}

// RequireRole gates a route on the principal's role. Callers must state
// whether a principal with no assigned role passes; there is no implicit
// allow.
func (h *AuthHandler) RequireRole(role domain.Role, allowUnassigned bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := PrincipalFromCtx(c)
		if principal == nil {
			return h.fail(c, autherror.ErrMissingToken)
		}

		if principal.Role == domain.RoleUnassigned {
			if allowUnassigned {
				return c.Next()
			}
			return h.fail(c, autherror.ErrForbidden)
		}
		if principal.Role != role {
			return h.fail(c, autherror.ErrForbidden)
		}

		return c.Next()
	}
}

// PrincipalFromCtx returns the claims attached by RequireAuth, or nil.
func PrincipalFromCtx(c *fiber.Ctx) *service.JWTCustomClaims {
	claims, _ := c.Locals(principalKey).(*service.JWTCustomClaims)
	return claims
}

func extractToken(c *fiber.Ctx) string {
	if cookie := c.Cookies(SessionCookieName); cookie != "" {
		return cookie
	}

	authHeader := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}

// rateLimit rejects requests over the per-origin budget before any
// business logic runs. Endpoint names keep the verify and resend budgets
// separate for the same client.
func (h *AuthHandler) rateLimit(endpoint string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if h.limiter == nil {
			return c.Next()
		}

		if err := h.limiter.Allow(c.UserContext(), endpoint+":"+c.IP()); err != nil {
			return h.fail(c, err)
		}

		return c.Next()
	}
}
