package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/bilgisen/factcheck/internal/auth"
	"github.com/bilgisen/factcheck/internal/logger"
	"github.com/bilgisen/factcheck/internal/storage"
	"github.com/bilgisen/factcheck/internal/workflow"
)

const validatedKey = "validated"

// Validator is a struct that holds the validator instance
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance. Field errors are
// reported under their JSON names.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Validate validates the request body against the provided struct
func (v *Validator) Validate(s interface{}) error {
	return v.validate.Struct(s)
}

// ValidateBody parses the JSON body into a fresh T per request, validates
// it and stores the pointer for Validated.
func ValidateBody[T any]() fiber.Handler {
	v := NewValidator()

	return func(c *fiber.Ctx) error {
		body := new(T)
		if err := c.BodyParser(body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
				"msg":   err.Error(),
			})
		}

		if err := v.Validate(body); err != nil {
			return err
		}

		c.Locals(validatedKey, body)
		return c.Next()
	}
}

// Validated returns the body stored by ValidateBody
func Validated[T any](c *fiber.Ctx) *T {
	body, _ := c.Locals(validatedKey).(*T)
	return body
}

// FieldErrors flattens validator errors into a field to tag map
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}

// StatusFor maps service errors onto HTTP status codes
func StatusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case FieldErrors(err) != nil:
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, workflow.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, workflow.ErrArticleNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, workflow.ErrInvalidTransition), errors.Is(err, storage.ErrDuplicateEmail):
		return fiber.StatusConflict
	case errors.Is(err, workflow.ErrValidation), errors.Is(err, auth.ErrInvalidUser):
		return fiber.StatusUnprocessableEntity
	}
	return fiber.StatusInternalServerError
}

// ErrorHandler is the app-wide fiber error handler
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := StatusFor(err)

	event := logger.Get().Warn()
	if code >= fiber.StatusInternalServerError {
		event = logger.Get().Error()
	}
	event.
		Err(err).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", code).
		Msg("HTTP error")

	if fields := FieldErrors(err); fields != nil {
		return c.Status(code).JSON(fiber.Map{
			"error":  "Validation failed",
			"fields": fields,
		})
	}

	msg := err.Error()
	if code >= fiber.StatusInternalServerError {
		msg = http.StatusText(code)
	}
	return c.Status(code).JSON(fiber.Map{
		"error": msg,
	})
}
