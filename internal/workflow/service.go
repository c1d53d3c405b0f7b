// Package workflow moves articles through pending, reviewed and
// admin_reviewed. Every operation receives the caller's principal and
// checks its role before touching the store.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bilgisen/factcheck/internal/auth"
	"github.com/bilgisen/factcheck/internal/classifier"
	"github.com/bilgisen/factcheck/internal/ingest"
	"github.com/bilgisen/factcheck/internal/logger"
	"github.com/bilgisen/factcheck/internal/models"
	"github.com/bilgisen/factcheck/internal/storage"
)

// SubmitInput is a user's raw submission
type SubmitInput struct {
	Title string
	Text  string
}

// ReviewInput is a reviewer's decision on a pending article
type ReviewInput struct {
	Verdict          models.Verdict
	NeedsAdminReview bool
}

type Service struct {
	repo       storage.Repository
	classifier *classifier.Classifier
	parser     *ingest.Parser
	observer   Observer
	now        func() time.Time
	newID      func() string

	requireReview bool
}

type Option func(*Service)

// WithClock fixes the time source for timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDs replaces the article id generator
func WithIDs(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

func WithParser(p *ingest.Parser) Option {
	return func(s *Service) { s.parser = p }
}

// RequireReviewBeforeAdmin stops admins from finalizing articles that no
// reviewer has looked at yet.
func RequireReviewBeforeAdmin(on bool) Option {
	return func(s *Service) { s.requireReview = on }
}

func New(repo storage.Repository, cls *classifier.Classifier, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		classifier: cls,
		parser:     ingest.NewParser(),
		observer:   NopObserver{},
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) log() *zerolog.Logger {
	l := logger.Component("workflow")
	return &l
}

// requireRole rejects principals without a user id; an empty id matches
// every row in the store's owner filters.
func requireRole(p auth.Principal, role models.Role) error {
	if p.UserID == "" {
		return fmt.Errorf("%w: missing user id", ErrForbidden)
	}
	if p.Role != role {
		return fmt.Errorf("%w: %s role required, have %q", ErrForbidden, role, p.Role)
	}
	return nil
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC()
}

// Submit cleans and validates the input, classifies it and stores a new
// pending article. Classification is frozen onto the article.
func (s *Service) Submit(ctx context.Context, p auth.Principal, in SubmitInput) (*models.Article, error) {
	if err := requireRole(p, models.RoleUser); err != nil {
		return nil, err
	}

	sub, err := s.parser.Prepare(ingest.Submission{Title: in.Title, Text: in.Text})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	result := s.classifier.Classify(sub.Text, sub.Title)
	article := &models.Article{
		ID:           s.newID(),
		Title:        sub.Title,
		Text:         sub.Text,
		SubmittedBy:  p.UserID,
		SubmittedAt:  s.timestamp(),
		MLPrediction: result.Verdict,
		MLConfidence: result.Confidence,
		Sources:      result.Sources,
		Status:       models.StatusPending,
	}
	if err := s.repo.InsertArticle(ctx, article); err != nil {
		return nil, fmt.Errorf("store article: %w", err)
	}

	s.log().Info().
		Str("article_id", article.ID).
		Str("user_id", p.UserID).
		Str("prediction", string(article.MLPrediction)).
		Float64("confidence", article.MLConfidence).
		Int("fake_score", result.FakeScore).
		Int("real_score", result.RealScore).
		Msg("Article submitted")

	return article, nil
}

// Review records a reviewer's verdict on a pending article
func (s *Service) Review(ctx context.Context, p auth.Principal, id string, in ReviewInput) (*models.Article, error) {
	if err := requireRole(p, models.RoleReviewer); err != nil {
		return nil, err
	}
	if !in.Verdict.Valid() {
		return nil, fmt.Errorf("%w: verdict must be Real or Fake, got %q", ErrValidation, in.Verdict)
	}

	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: article %s is %s", ErrInvalidTransition, id, current.Status)
	}

	status := models.StatusReviewed
	reviewer := p.UserID
	at := s.timestamp()
	update := storage.ArticleUpdate{
		Status:           &status,
		FinalVerdict:     &in.Verdict,
		ReviewedBy:       &reviewer,
		ReviewedAt:       &at,
		NeedsAdminReview: &in.NeedsAdminReview,
	}
	n, err := s.repo.UpdateArticle(ctx, id, update, storage.Match{Status: models.StatusPending})
	if err != nil {
		return nil, fmt.Errorf("update article: %w", err)
	}
	if n == 0 {
		// another reviewer got there first
		return nil, fmt.Errorf("%w: article %s is no longer pending", ErrInvalidTransition, id)
	}

	article, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	s.log().Info().
		Str("article_id", id).
		Str("reviewer_id", reviewer).
		Str("verdict", string(in.Verdict)).
		Bool("needs_admin_review", in.NeedsAdminReview).
		Str("status", string(article.Status)).
		Msg("Article reviewed")

	if in.NeedsAdminReview {
		if err := s.observer.ArticleFlagged(ctx, article); err != nil {
			s.log().Warn().Err(err).Str("article_id", id).Msg("Flag notification failed")
		}
	}
	return article, nil
}

// DismissAdminReview withdraws the reviewer's own escalation. Articles
// reviewed by someone else are left alone and 0 is returned.
func (s *Service) DismissAdminReview(ctx context.Context, p auth.Principal, id string) (int64, error) {
	if err := requireRole(p, models.RoleReviewer); err != nil {
		return 0, err
	}
	if _, err := s.load(ctx, id); err != nil {
		return 0, err
	}

	off := false
	n, err := s.repo.UpdateArticle(ctx, id,
		storage.ArticleUpdate{NeedsAdminReview: &off},
		storage.Match{ReviewedBy: p.UserID},
	)
	if err != nil {
		return 0, fmt.Errorf("update article: %w", err)
	}

	s.log().Info().
		Str("article_id", id).
		Str("reviewer_id", p.UserID).
		Int64("rows", n).
		Msg("Admin review dismissed")
	return n, nil
}

// AdminVerify finalizes an article with the admin's verdict. Unless
// RequireReviewBeforeAdmin is set it also accepts pending articles, which
// then never get reviewer attribution.
func (s *Service) AdminVerify(ctx context.Context, p auth.Principal, id string, verdict models.Verdict) (*models.Article, error) {
	if err := requireRole(p, models.RoleAdmin); err != nil {
		return nil, err
	}
	if !verdict.Valid() {
		return nil, fmt.Errorf("%w: verdict must be Real or Fake, got %q", ErrValidation, verdict)
	}

	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var match storage.Match
	if s.requireReview {
		if current.Status == models.StatusPending {
			return nil, fmt.Errorf("%w: article %s has not been reviewed", ErrInvalidTransition, id)
		}
		match.Status = current.Status
	}

	status := models.StatusAdminReviewed
	verified, flagged := true, false
	admin := p.UserID
	at := s.timestamp()
	update := storage.ArticleUpdate{
		Status:           &status,
		FinalVerdict:     &verdict,
		NeedsAdminReview: &flagged,
		AdminVerified:    &verified,
		AdminVerifiedBy:  &admin,
		AdminVerifiedAt:  &at,
	}
	n, err := s.repo.UpdateArticle(ctx, id, update, match)
	if err != nil {
		return nil, fmt.Errorf("update article: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: article %s changed during verification", ErrInvalidTransition, id)
	}

	article, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	s.log().Info().
		Str("article_id", id).
		Str("admin_id", admin).
		Str("verdict", string(verdict)).
		Str("previous_status", string(current.Status)).
		Msg("Article finalized")

	if err := s.observer.ArticleFinalized(ctx, article); err != nil {
		s.log().Warn().Err(err).Str("article_id", id).Msg("Finalize notification failed")
	}
	return article, nil
}

// Get returns one article. Users only see their own submissions; anything
// else reads as not found.
func (s *Service) Get(ctx context.Context, p auth.Principal, id string) (*models.Article, error) {
	if !p.Role.Valid() || p.UserID == "" {
		return nil, fmt.Errorf("%w: unknown principal %q with role %q", ErrForbidden, p.UserID, p.Role)
	}
	article, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Role == models.RoleUser && article.SubmittedBy != p.UserID {
		return nil, fmt.Errorf("%w: %s", ErrArticleNotFound, id)
	}
	return article, nil
}

// MyArticles lists the user's submissions, newest first
func (s *Service) MyArticles(ctx context.Context, p auth.Principal) ([]*models.Article, error) {
	if err := requireRole(p, models.RoleUser); err != nil {
		return nil, err
	}
	return s.list(ctx, storage.ArticleFilter{SubmittedBy: p.UserID})
}

// PendingQueue lists every article still waiting for a reviewer
func (s *Service) PendingQueue(ctx context.Context, p auth.Principal) ([]*models.Article, error) {
	if err := requireRole(p, models.RoleReviewer); err != nil {
		return nil, err
	}
	return s.list(ctx, storage.ArticleFilter{Status: models.StatusPending})
}

// ReviewedBy lists the articles the calling reviewer has reviewed
func (s *Service) ReviewedBy(ctx context.Context, p auth.Principal) ([]*models.Article, error) {
	if err := requireRole(p, models.RoleReviewer); err != nil {
		return nil, err
	}
	return s.list(ctx, storage.ArticleFilter{ReviewedBy: p.UserID, Sort: storage.SortReviewedDesc})
}

// EscalationQueue lists flagged articles no admin has verified yet
func (s *Service) EscalationQueue(ctx context.Context, p auth.Principal) ([]*models.Article, error) {
	if err := requireRole(p, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.list(ctx, storage.ArticleFilter{AwaitingAdmin: true, Sort: storage.SortReviewedDesc})
}

func (s *Service) AllArticles(ctx context.Context, p auth.Principal) ([]*models.Article, error) {
	if err := requireRole(p, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.list(ctx, storage.ArticleFilter{})
}

func (s *Service) load(ctx context.Context, id string) (*models.Article, error) {
	article, err := s.repo.GetArticle(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrArticleNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load article %s: %w", id, err)
	}
	return article, nil
}

func (s *Service) list(ctx context.Context, filter storage.ArticleFilter) ([]*models.Article, error) {
	articles, err := s.repo.ListArticles(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return articles, nil
}
