package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/bilgisen/factcheck/internal/auth"
	"github.com/bilgisen/factcheck/internal/logger"
	"github.com/bilgisen/factcheck/internal/middleware"
	"github.com/bilgisen/factcheck/internal/models"
	"github.com/bilgisen/factcheck/internal/storage"
	"github.com/bilgisen/factcheck/internal/workflow"
)

const version = "1.0.0"

type Handlers struct {
	workflow *workflow.Service
	auth     *auth.Authenticator
	repo     storage.Repository
}

func NewHandlers(svc *workflow.Service, authn *auth.Authenticator, repo storage.Repository) *Handlers {
	return &Handlers{
		workflow: svc,
		auth:     authn,
		repo:     repo,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type submitRequest struct {
	Title string `json:"title" validate:"required,max=300"`
	Text  string `json:"text" validate:"required"`
}

type reviewRequest struct {
	FinalVerdict     string `json:"final_verdict" validate:"required,oneof=Real Fake"`
	NeedsAdminReview bool   `json:"needs_admin_review"`
}

type verifyRequest struct {
	AdminVerdict string `json:"admin_verdict" validate:"required,oneof=Real Fake"`
}

type createUserRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"required,oneof=user reviewer admin"`
}

// principal is only called behind NewAuth
func principal(c *fiber.Ctx) auth.Principal {
	p, _ := middleware.PrincipalFrom(c)
	return p
}

// HealthCheck handles GET /api/v1/health
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status, code := "ok", fiber.StatusOK
	if err := h.repo.Ping(ctx); err != nil {
		logger.Get().Error().Err(err).Msg("Store ping failed")
		status, code = "degraded", fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status":  status,
		"version": version,
		"time":    time.Now().Format(time.RFC3339),
	})
}

// Login handles POST /api/v1/auth/login
func (h *Handlers) Login(c *fiber.Ctx) error {
	req := middleware.Validated[loginRequest](c)

	sess, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(sess)
}

// Logout handles POST /api/v1/auth/logout
func (h *Handlers) Logout(c *fiber.Ctx) error {
	if err := h.auth.Logout(c.UserContext(), middleware.TokenFrom(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Me handles GET /api/v1/me
func (h *Handlers) Me(c *fiber.Ctx) error {
	p := principal(c)
	return c.JSON(fiber.Map{
		"id":   p.UserID,
		"name": p.Name,
		"role": p.Role,
	})
}

// SubmitArticle handles POST /api/v1/articles
func (h *Handlers) SubmitArticle(c *fiber.Ctx) error {
	req := middleware.Validated[submitRequest](c)

	article, err := h.workflow.Submit(c.UserContext(), principal(c), workflow.SubmitInput{
		Title: req.Title,
		Text:  req.Text,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(article)
}

// MyArticles handles GET /api/v1/articles
func (h *Handlers) MyArticles(c *fiber.Ctx) error {
	dash, err := h.workflow.UserDashboard(c.UserContext(), principal(c))
	if err != nil {
		return err
	}
	return c.JSON(dash)
}

// GetArticle handles GET /api/v1/articles/:id
func (h *Handlers) GetArticle(c *fiber.Ctx) error {
	article, err := h.workflow.Get(c.UserContext(), principal(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(article)
}

// ReviewerDashboard handles GET /api/v1/reviewer/dashboard
func (h *Handlers) ReviewerDashboard(c *fiber.Ctx) error {
	dash, err := h.workflow.ReviewerDashboard(c.UserContext(), principal(c))
	if err != nil {
		return err
	}
	return c.JSON(dash)
}

// Review handles POST /api/v1/reviewer/articles/:id/review
func (h *Handlers) Review(c *fiber.Ctx) error {
	req := middleware.Validated[reviewRequest](c)

	article, err := h.workflow.Review(c.UserContext(), principal(c), c.Params("id"), workflow.ReviewInput{
		Verdict:          models.Verdict(req.FinalVerdict),
		NeedsAdminReview: req.NeedsAdminReview,
	})
	if err != nil {
		return err
	}
	return c.JSON(article)
}

// DismissAdminReview handles POST /api/v1/reviewer/articles/:id/dismiss
func (h *Handlers) DismissAdminReview(c *fiber.Ctx) error {
	n, err := h.workflow.DismissAdminReview(c.UserContext(), principal(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"updated": n,
	})
}

// AdminDashboard handles GET /api/v1/admin/dashboard
func (h *Handlers) AdminDashboard(c *fiber.Ctx) error {
	dash, err := h.workflow.AdminDashboard(c.UserContext(), principal(c))
	if err != nil {
		return err
	}
	return c.JSON(dash)
}

// AdminVerify handles POST /api/v1/admin/articles/:id/verify
func (h *Handlers) AdminVerify(c *fiber.Ctx) error {
	req := middleware.Validated[verifyRequest](c)

	article, err := h.workflow.AdminVerify(c.UserContext(), principal(c), c.Params("id"), models.Verdict(req.AdminVerdict))
	if err != nil {
		return err
	}
	return c.JSON(article)
}

// CreateUser handles POST /api/v1/admin/users. Accounts are create-only;
// there is no endpoint to change a role.
func (h *Handlers) CreateUser(c *fiber.Ctx) error {
	req := middleware.Validated[createUserRequest](c)

	u, err := h.auth.Register(c.UserContext(), req.Name, req.Email, req.Password, models.Role(req.Role))
	if err != nil {
		return err
	}

	logger.Get().Info().
		Str("user_id", u.ID).
		Str("role", string(u.Role)).
		Str("created_by", principal(c).UserID).
		Msg("User created")

	return c.Status(fiber.StatusCreated).JSON(u)
}
