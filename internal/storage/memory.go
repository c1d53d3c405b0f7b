package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bilgisen/factcheck/internal/models"
)

// MemoryStore keeps records in process memory. Used by tests and by the
// "memory:" database URL.
type MemoryStore struct {
	mu       sync.RWMutex
	articles map[string]*models.Article
	users    map[string]*models.User
	emails   map[string]string
	seq      map[string]int
	next     int
}

var _ Repository = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		articles: make(map[string]*models.Article),
		users:    make(map[string]*models.User),
		emails:   make(map[string]string),
		seq:      make(map[string]int),
	}
}

func (s *MemoryStore) InsertArticle(ctx context.Context, article *models.Article) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if article == nil || article.ID == "" {
		return fmt.Errorf("insert article: missing id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.articles[article.ID]; exists {
		return fmt.Errorf("insert article: duplicate id %s", article.ID)
	}
	s.articles[article.ID] = article.Clone()
	s.next++
	s.seq[article.ID] = s.next
	return nil
}

func (s *MemoryStore) GetArticle(ctx context.Context, id string) (*models.Article, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.articles[id]
	if !ok {
		return nil, fmt.Errorf("article %s: %w", id, ErrNotFound)
	}
	return a.Clone(), nil
}

func (s *MemoryStore) UpdateArticle(ctx context.Context, id string, update ArticleUpdate, match Match) (int64, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}
	if update.Empty() {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.articles[id]
	if !ok || !match.matches(a) {
		return 0, nil
	}
	update.apply(a)
	return 1, nil
}

func (s *MemoryStore) ListArticles(ctx context.Context, filter ArticleFilter) ([]*models.Article, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Article, 0)
	for _, a := range s.articles {
		if filter.matches(a) {
			out = append(out, a.Clone())
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		var ti, tj time.Time
		switch filter.Sort {
		case SortReviewedDesc:
			ti, tj = timeOrZero(out[i].ReviewedAt), timeOrZero(out[j].ReviewedAt)
		default:
			ti, tj = out[i].SubmittedAt, out[j].SubmittedAt
		}
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return s.seq[out[i].ID] > s.seq[out[j].ID]
	})
	return out, nil
}

func (s *MemoryStore) InsertUser(ctx context.Context, user *models.User) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if user == nil || user.ID == "" {
		return fmt.Errorf("insert user: missing id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email := models.NormalizeEmail(user.Email)
	if _, taken := s.emails[email]; taken {
		return fmt.Errorf("insert user %s: %w", email, ErrDuplicateEmail)
	}
	u := *user
	u.Email = email
	s.users[u.ID] = &u
	s.emails[email] = u.ID
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	c := *u
	return &c, nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	s.mu.RLock()
	id, ok := s.emails[models.NormalizeEmail(email)]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	return s.GetUser(ctx, id)
}

func (s *MemoryStore) ListUsers(ctx context.Context, filter UserFilter) ([]*models.User, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *MemoryStore) CountUsers(ctx context.Context) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Close() error {
	return nil
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
