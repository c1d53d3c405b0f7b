package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bilgisen/factcheck/internal/auth"
	"github.com/bilgisen/factcheck/internal/models"
	"github.com/bilgisen/factcheck/internal/storage"
	"github.com/bilgisen/factcheck/internal/workflow"
)

func resolver(tokens map[string]auth.Principal) func(context.Context, string) (auth.Principal, error) {
	return func(_ context.Context, token string) (auth.Principal, error) {
		if token == "broken" {
			return auth.Principal{}, errors.New("redis down")
		}
		p, ok := tokens[token]
		if !ok {
			return auth.Principal{}, auth.ErrUnauthenticated
		}
		return p, nil
	}
}

func newTestApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(NewLogger())
	app.Use(NewAuth(AuthConfig{Resolver: resolver(map[string]auth.Principal{
		"user-token":  {UserID: "u1", Role: models.RoleUser},
		"admin-token": {UserID: "a1", Role: models.RoleAdmin},
	})}))
	app.Get("/me", func(c *fiber.Ctx) error {
		p, _ := PrincipalFrom(c)
		return c.JSON(fiber.Map{"user_id": p.UserID, "token": TokenFrom(c)})
	})
	app.Get("/admin", RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func do(t *testing.T, app *fiber.App, method, path, token, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestAuthMiddleware(t *testing.T) {
	app := newTestApp()

	code, body := do(t, app, "GET", "/me", "user-token", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "u1", body["user_id"])
	assert.Equal(t, "user-token", body["token"])

	code, _ = do(t, app, "GET", "/me", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, code)

	code, _ = do(t, app, "GET", "/me", "stale", "")
	assert.Equal(t, fiber.StatusUnauthorized, code)

	code, _ = do(t, app, "GET", "/me", "broken", "")
	assert.Equal(t, fiber.StatusInternalServerError, code)
}

func TestRequireRole(t *testing.T) {
	app := newTestApp()

	code, _ := do(t, app, "GET", "/admin", "admin-token", "")
	assert.Equal(t, fiber.StatusNoContent, code)

	code, body := do(t, app, "GET", "/admin", "user-token", "")
	assert.Equal(t, fiber.StatusForbidden, code)
	assert.Equal(t, "Insufficient role", body["error"])
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer   abc "))
	assert.Equal(t, "abc", BearerToken("abc"))
	assert.Equal(t, "", BearerToken(""))
}

type verdictBody struct {
	Verdict string `json:"final_verdict" validate:"required,oneof=Real Fake"`
}

func TestValidateBody(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Post("/", ValidateBody[verdictBody](), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"verdict": Validated[verdictBody](c).Verdict})
	})

	code, body := do(t, app, "POST", "/", "", `{"final_verdict":"Fake"}`)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "Fake", body["verdict"])

	code, body = do(t, app, "POST", "/", "", `{"final_verdict":"Unsure"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
	assert.Equal(t, map[string]interface{}{"final_verdict": "oneof"}, body["fields"])

	code, _ = do(t, app, "POST", "/", "", `{not json`)
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrapped: %w", workflow.ErrForbidden), fiber.StatusForbidden},
		{fmt.Errorf("wrapped: %w", workflow.ErrArticleNotFound), fiber.StatusNotFound},
		{fmt.Errorf("wrapped: %w", workflow.ErrInvalidTransition), fiber.StatusConflict},
		{fmt.Errorf("wrapped: %w", workflow.ErrValidation), fiber.StatusUnprocessableEntity},
		{auth.ErrInvalidCredentials, fiber.StatusUnauthorized},
		{auth.ErrInvalidUser, fiber.StatusUnprocessableEntity},
		{storage.ErrDuplicateEmail, fiber.StatusConflict},
		{fiber.NewError(fiber.StatusTeapot, "tea"), fiber.StatusTeapot},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestErrorHandlerHidesInternalErrors(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/", func(c *fiber.Ctx) error {
		return errors.New("sql: connection refused")
	})

	code, body := do(t, app, "GET", "/", "", "")
	assert.Equal(t, fiber.StatusInternalServerError, code)
	assert.Equal(t, "Internal Server Error", body["error"])
}
