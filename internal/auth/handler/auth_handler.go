package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/careledger/auth-service/config"
	"github.com/careledger/auth-service/internal/auth/dto"
	"github.com/careledger/auth-service/internal/auth/service"
	autherror "github.com/careledger/auth-service/internal/errors"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "access_token"

// RequestLimiter bounds hits per origin key for the rate-limited endpoints.
type RequestLimiter interface {
	Allow(ctx context.Context, key string) error
}

type AuthHandler struct {
	userService *service.UserService
	tokens      service.TokenGenerator
	limiter     RequestLimiter
	cfg         *config.Config
	logger      *slog.Logger
	validate    *validator.Validate
}

func NewAuthHandler(userService *service.UserService, tokens service.TokenGenerator,
	limiter RequestLimiter, cfg *config.Config, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		tokens:      tokens,
		limiter:     limiter,
		cfg:         cfg,
		logger:      logger,
		validate:    validator.New(),
	}
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var input dto.SignupInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "email and password are required")
	}
	if err := h.validate.Struct(input); err != nil {
		return badRequest(c, "email and password are required")
	}

	if err := h.userService.Signup(c.UserContext(), input.Email, input.Password); err != nil {
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "OTP sent"})
}

func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	var input dto.VerifyInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "email and otp are required")
	}
	if err := h.validate.Struct(input); err != nil {
		return badRequest(c, "email and otp are required")
	}

	alreadyVerified, err := h.userService.Verify(c.UserContext(), input.Email, input.Otp)
	if err != nil {
		return h.fail(c, err)
	}
	if alreadyVerified {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Already verified"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Email verified"})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "email and password are required")
	}
	if err := h.validate.Struct(input); err != nil {
		return badRequest(c, "email and password are required")
	}

	user, token, _, err := h.userService.Login(c.UserContext(), input.Email, input.Password)
	if err != nil {
		return h.fail(c, err)
	}

	c.Cookie(h.sessionCookie(token, int(h.tokens.Lifetime().Seconds())))

	return c.Status(fiber.StatusOK).JSON(dto.LoginResponse{
		Success: true,
		User:    dto.LoginUser{ID: user.ID, Email: user.Email},
	})
}

func (h *AuthHandler) ResendOtp(c *fiber.Ctx) error {
	var input dto.ResendOtpInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "email is required")
	}
	if err := h.validate.Struct(input); err != nil {
		return badRequest(c, "email is required")
	}

	alreadyVerified, err := h.userService.ResendOtp(c.UserContext(), input.Email)
	if err != nil {
		return h.fail(c, err)
	}
	if alreadyVerified {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Already verified"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "OTP resent"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal := PrincipalFromCtx(c)
	if principal == nil {
		return h.fail(c, autherror.ErrMissingToken)
	}

	return c.Status(fiber.StatusOK).JSON(dto.PrincipalOutput{
		ID:    principal.UserID,
		Email: principal.Email,
		Role:  string(principal.Role),
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	// Overwrite with an immediately-expiring cookie; the token itself
	// stays valid until its exp, there is no server-side revocation.
	c.Cookie(h.sessionCookie("", -1))

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Logged out"})
}

func (h *AuthHandler) sessionCookie(value string, maxAge int) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HTTPOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: fiber.CookieSameSiteStrictMode,
	}
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": message})
}

// fail maps a service error onto the HTTP taxonomy. Unknown errors are
// logged server-side and surface as an opaque 500.
func (h *AuthHandler) fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Server error"

	switch {
	case errors.Is(err, autherror.ErrInvalidEmail),
		errors.Is(err, autherror.ErrWeakPassword),
		errors.Is(err, autherror.ErrOtpExpired),
		errors.Is(err, autherror.ErrOtpIncorrect):
		status = fiber.StatusBadRequest
		message = err.Error()
	case errors.Is(err, autherror.ErrInvalidCredentials),
		errors.Is(err, autherror.ErrInvalidToken),
		errors.Is(err, autherror.ErrMissingToken):
		status = fiber.StatusUnauthorized
		message = err.Error()
	case errors.Is(err, autherror.ErrEmailNotVerified),
		errors.Is(err, autherror.ErrForbidden):
		status = fiber.StatusForbidden
		message = err.Error()
	case errors.Is(err, autherror.ErrUserNotFound):
		status = fiber.StatusNotFound
		message = err.Error()
	case errors.Is(err, autherror.ErrEmailAlreadyInUse):
		status = fiber.StatusConflict
		message = err.Error()
	case errors.Is(err, autherror.ErrTooManyAttempts),
		errors.Is(err, autherror.ErrRateLimited):
		status = fiber.StatusTooManyRequests
		message = err.Error()
	default:
		h.logger.Error("request failed", slog.String("path", c.Path()), slog.Any("error", err))
	}

	return c.Status(status).JSON(fiber.Map{"message": message})
}
