package storage

import (
	"context"
	"errors"
	"time"

	"github.com/bilgisen/factcheck/internal/models"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// Repository is the record store the workflow depends on.
type Repository interface {
	InsertArticle(ctx context.Context, article *models.Article) error
	GetArticle(ctx context.Context, id string) (*models.Article, error)
	// UpdateArticle applies the non-nil fields of update to the article with
	// the given id when it satisfies match. It returns the number of rows
	// changed; zero is not an error.
	UpdateArticle(ctx context.Context, id string, update ArticleUpdate, match Match) (int64, error)
	ListArticles(ctx context.Context, filter ArticleFilter) ([]*models.Article, error)

	InsertUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]*models.User, error)
	CountUsers(ctx context.Context) (int, error)

	Ping(ctx context.Context) error
	Close() error
}

// ArticleUpdate is a field set; nil fields are left alone
type ArticleUpdate struct {
	Status           *models.Status
	FinalVerdict     *models.Verdict
	ReviewedBy       *string
	ReviewedAt       *time.Time
	NeedsAdminReview *bool
	AdminVerified    *bool
	AdminVerifiedBy  *string
	AdminVerifiedAt  *time.Time
}

// Empty reports whether the update touches no field
func (u ArticleUpdate) Empty() bool {
	return u.Status == nil && u.FinalVerdict == nil && u.ReviewedBy == nil && u.ReviewedAt == nil &&
		u.NeedsAdminReview == nil && u.AdminVerified == nil && u.AdminVerifiedBy == nil && u.AdminVerifiedAt == nil
}

// apply copies the set fields onto a
func (u ArticleUpdate) apply(a *models.Article) {
	if u.Status != nil {
		a.Status = *u.Status
	}
	if u.FinalVerdict != nil {
		a.FinalVerdict = *u.FinalVerdict
	}
	if u.ReviewedBy != nil {
		a.ReviewedBy = *u.ReviewedBy
	}
	if u.ReviewedAt != nil {
		t := *u.ReviewedAt
		a.ReviewedAt = &t
	}
	if u.NeedsAdminReview != nil {
		a.NeedsAdminReview = *u.NeedsAdminReview
	}
	if u.AdminVerified != nil {
		a.AdminVerified = *u.AdminVerified
	}
	if u.AdminVerifiedBy != nil {
		a.AdminVerifiedBy = *u.AdminVerifiedBy
	}
	if u.AdminVerifiedAt != nil {
		t := *u.AdminVerifiedAt
		a.AdminVerifiedAt = &t
	}
}

// Match narrows an update. Zero values match anything.
type Match struct {
	Status     models.Status
	ReviewedBy string
}

func (m Match) matches(a *models.Article) bool {
	if m.Status != "" && a.Status != m.Status {
		return false
	}
	if m.ReviewedBy != "" && a.ReviewedBy != m.ReviewedBy {
		return false
	}
	return true
}

// SortOrder picks the listing order
type SortOrder int

const (
	SortSubmittedDesc SortOrder = iota
	SortReviewedDesc
)

// ArticleFilter selects articles; zero fields are ignored and set fields are ANDed
type ArticleFilter struct {
	SubmittedBy   string
	Status        models.Status
	ReviewedBy    string
	AwaitingAdmin bool
	Sort          SortOrder
}

func (f ArticleFilter) matches(a *models.Article) bool {
	if f.SubmittedBy != "" && a.SubmittedBy != f.SubmittedBy {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.ReviewedBy != "" && a.ReviewedBy != f.ReviewedBy {
		return false
	}
	if f.AwaitingAdmin && !a.AwaitingAdmin() {
		return false
	}
	return true
}

type UserFilter struct {
	Role models.Role
}
