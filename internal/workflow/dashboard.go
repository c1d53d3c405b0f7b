package workflow

import (
	"context"
	"fmt"

	"github.com/bilgisen/factcheck/internal/analytics"
	"github.com/bilgisen/factcheck/internal/auth"
	"github.com/bilgisen/factcheck/internal/storage"
)

type UserDashboard struct {
	Stats    analytics.UserStats     `json:"stats"`
	Articles []analytics.ArticleView `json:"articles"`
}

type ReviewerDashboard struct {
	Stats    analytics.ReviewerStats `json:"stats"`
	Pending  []analytics.ArticleView `json:"pending"`
	Reviewed []analytics.ArticleView `json:"reviewed"`
}

type AdminDashboard struct {
	Stats       analytics.AdminStats    `json:"stats"`
	Escalations []analytics.ArticleView `json:"escalations"`
	Articles    []analytics.ArticleView `json:"articles"`
}

func (s *Service) UserDashboard(ctx context.Context, p auth.Principal) (*UserDashboard, error) {
	mine, err := s.MyArticles(ctx, p)
	if err != nil {
		return nil, err
	}
	names, err := s.names(ctx)
	if err != nil {
		return nil, err
	}
	return &UserDashboard{
		Stats:    analytics.ForUser(mine),
		Articles: analytics.ArticleViews(mine, names),
	}, nil
}

func (s *Service) ReviewerDashboard(ctx context.Context, p auth.Principal) (*ReviewerDashboard, error) {
	pending, err := s.PendingQueue(ctx, p)
	if err != nil {
		return nil, err
	}
	reviewed, err := s.ReviewedBy(ctx, p)
	if err != nil {
		return nil, err
	}
	names, err := s.names(ctx)
	if err != nil {
		return nil, err
	}
	return &ReviewerDashboard{
		Stats:    analytics.ForReviewer(pending, reviewed),
		Pending:  analytics.ArticleViews(pending, names),
		Reviewed: analytics.ArticleViews(reviewed, names),
	}, nil
}

func (s *Service) AdminDashboard(ctx context.Context, p auth.Principal) (*AdminDashboard, error) {
	all, err := s.AllArticles(ctx, p)
	if err != nil {
		return nil, err
	}
	escalations, err := s.EscalationQueue(ctx, p)
	if err != nil {
		return nil, err
	}
	users, err := s.repo.ListUsers(ctx, storage.UserFilter{})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	names := analytics.Names(users)
	return &AdminDashboard{
		Stats:       analytics.ForAdmin(all, users),
		Escalations: analytics.ArticleViews(escalations, names),
		Articles:    analytics.ArticleViews(all, names),
	}, nil
}

func (s *Service) names(ctx context.Context) (map[string]string, error) {
	users, err := s.repo.ListUsers(ctx, storage.UserFilter{})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return analytics.Names(users), nil
}
