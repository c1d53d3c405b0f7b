package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bilgisen/factcheck/internal/cache"
	"github.com/bilgisen/factcheck/internal/logger"
	"github.com/bilgisen/factcheck/internal/models"
	"github.com/bilgisen/factcheck/internal/storage"
	"github.com/bilgisen/factcheck/internal/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidUser        = errors.New("invalid user")
)

// Principal is the request-scoped identity every workflow operation receives
type Principal struct {
	UserID string
	Name   string
	Role   models.Role
}

// Session is handed to the client after a successful login
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

type Authenticator struct {
	repo     storage.Repository
	sessions cache.SessionStore
	ttl      time.Duration
	cost     int
	now      func() time.Time
}

type Option func(*Authenticator)

func WithSessionTTL(ttl time.Duration) Option {
	return func(a *Authenticator) { a.ttl = ttl }
}

// WithCost sets the bcrypt cost for new passwords
func WithCost(cost int) Option {
	return func(a *Authenticator) { a.cost = cost }
}

func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) { a.now = now }
}

func New(repo storage.Repository, sessions cache.SessionStore, opts ...Option) *Authenticator {
	a := &Authenticator{
		repo:     repo,
		sessions: sessions,
		ttl:      24 * time.Hour,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// MaxPasswordBytes is the longest password bcrypt will hash
const MaxPasswordBytes = 72

// Register creates an account. Roles cannot be changed afterwards.
func (a *Authenticator) Register(ctx context.Context, name, email, password string, role models.Role) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = models.NormalizeEmail(email)
	switch {
	case name == "":
		return nil, fmt.Errorf("%w: name is required", ErrInvalidUser)
	case email == "":
		return nil, fmt.Errorf("%w: email is required", ErrInvalidUser)
	case password == "":
		return nil, fmt.Errorf("%w: password is required", ErrInvalidUser)
	case len(password) > MaxPasswordBytes:
		return nil, fmt.Errorf("%w: password longer than %d bytes", ErrInvalidUser, MaxPasswordBytes)
	case !role.Valid():
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidUser, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    a.now().UTC(),
	}
	if err := a.repo.InsertUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login checks the credentials and opens a session
func (a *Authenticator) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := a.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token := uuid.NewString()
	if err := a.sessions.Put(ctx, sessionKey(token), u.ID, a.ttl); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	logger.Get().Info().Str("user_id", u.ID).Str("role", string(u.Role)).Msg("User logged in")

	return &Session{
		Token:     token,
		ExpiresAt: a.now().Add(a.ttl).UTC(),
		User:      u,
	}, nil
}

// Resolve maps a session token to a principal. The role is read from the
// store on every call.
func (a *Authenticator) Resolve(ctx context.Context, token string) (Principal, error) {
	if token == "" {
		return Principal{}, ErrUnauthenticated
	}

	userID, err := a.sessions.Get(ctx, sessionKey(token))
	if errors.Is(err, cache.ErrMiss) {
		return Principal{}, ErrUnauthenticated
	}
	if err != nil {
		return Principal{}, fmt.Errorf("load session: %w", err)
	}

	u, err := a.repo.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return Principal{}, ErrUnauthenticated
	}
	if err != nil {
		return Principal{}, fmt.Errorf("load user: %w", err)
	}

	return Principal{UserID: u.ID, Name: u.Name, Role: u.Role}, nil
}

func (a *Authenticator) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := a.sessions.Delete(ctx, sessionKey(token)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DefaultAccount is one of the demo accounts created on an empty store
type DefaultAccount struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
}

var DefaultAccounts = []DefaultAccount{
	{"Admin User", "admin@system.com", "admin123", models.RoleAdmin},
	{"Reviewer Priya", "reviewer@system.com", "reviewer123", models.RoleReviewer},
	{"General User", "user@system.com", "user123", models.RoleUser},
}

// SeedDefaults registers DefaultAccounts when no user exists yet and
// returns how many were created.
func (a *Authenticator) SeedDefaults(ctx context.Context) (int, error) {
	n, err := a.repo.CountUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	for i, acc := range DefaultAccounts {
		if _, err := a.Register(ctx, acc.Name, acc.Email, acc.Password, acc.Role); err != nil {
			return i, fmt.Errorf("seed %s: %w", acc.Email, err)
		}
	}
	return len(DefaultAccounts), nil
}

// Raw tokens never reach the session store
func sessionKey(token string) string {
	return utils.Hash("session", token)
}
