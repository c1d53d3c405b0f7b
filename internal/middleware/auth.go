package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/bilgisen/factcheck/internal/auth"
	"github.com/bilgisen/factcheck/internal/logger"
	"github.com/bilgisen/factcheck/internal/models"
)

const (
	principalKey = "principal"
	tokenKey     = "token"
)

// AuthConfig defines the config for the auth middleware
type AuthConfig struct {
	// Skip defines a function to skip middleware.
	// Optional. Default: nil
	Next func(c *fiber.Ctx) bool

	// Resolver maps a session token to the caller's principal.
	// Required.
	Resolver func(ctx context.Context, token string) (auth.Principal, error)

	// ErrorHandler defines a function which is executed for a missing or
	// unknown token.
	// Optional. Default: 401 Authentication required
	ErrorHandler fiber.ErrorHandler

	// Header is the header the bearer token is read from.
	// Optional. Default: "Authorization"
	Header string
}

// ConfigDefault is the default config
var ConfigDefault = AuthConfig{
	Next: nil,
	ErrorHandler: func(c *fiber.Ctx, err error) error {
		logger.Get().Warn().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("ip", c.IP()).
			Err(err).
			Msg("Authentication failed")

		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	},
	Header: fiber.HeaderAuthorization,
}

// NewAuth resolves the bearer token on every request and stores the
// principal for handlers.
func NewAuth(config AuthConfig) fiber.Handler {
	cfg := config
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = ConfigDefault.ErrorHandler
	}
	if cfg.Header == "" {
		cfg.Header = ConfigDefault.Header
	}
	if cfg.Resolver == nil {
		panic("middleware: AuthConfig.Resolver is required")
	}

	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		token := BearerToken(c.Get(cfg.Header))
		if token == "" {
			return cfg.ErrorHandler(c, auth.ErrUnauthenticated)
		}

		p, err := cfg.Resolver(c.UserContext(), token)
		if errors.Is(err, auth.ErrUnauthenticated) {
			return cfg.ErrorHandler(c, err)
		}
		if err != nil {
			// store trouble is a server error, not a bad token
			return err
		}

		c.Locals(principalKey, p)
		c.Locals(tokenKey, token)
		return c.Next()
	}
}

// BearerToken strips the "Bearer " scheme; bare tokens are accepted as is
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

// PrincipalFrom returns the principal stored by NewAuth
func PrincipalFrom(c *fiber.Ctx) (auth.Principal, bool) {
	p, ok := c.Locals(principalKey).(auth.Principal)
	return p, ok
}

// TokenFrom returns the raw session token stored by NewAuth
func TokenFrom(c *fiber.Ctx) string {
	t, _ := c.Locals(tokenKey).(string)
	return t
}

// RequireRole rejects principals whose role is not listed
func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := PrincipalFrom(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}
		for _, r := range roles {
			if p.Role == r {
				return c.Next()
			}
		}

		logger.Get().Warn().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("user_id", p.UserID).
			Str("role", string(p.Role)).
			Msg("Role not permitted")

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient role",
		})
	}
}
