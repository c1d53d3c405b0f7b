package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bilgisen/factcheck/internal/cache"
	"github.com/bilgisen/factcheck/internal/models"
	"github.com/bilgisen/factcheck/internal/storage"
)

func newTestAuth(t *testing.T) (*Authenticator, *storage.MemoryStore, *cache.MemoryClient) {
	t.Helper()
	repo := storage.NewMemoryStore()
	sessions := cache.NewMemoryClient()
	return New(repo, sessions, WithCost(bcrypt.MinCost), WithSessionTTL(time.Hour)), repo, sessions
}

func TestLoginAndResolve(t *testing.T) {
	ctx := context.Background()
	a, _, _ := newTestAuth(t)

	u, err := a.Register(ctx, "Reviewer Priya", "Reviewer@System.com", "secret", models.RoleReviewer)
	require.NoError(t, err)
	assert.Equal(t, "reviewer@system.com", u.Email)
	assert.NotEqual(t, "secret", u.PasswordHash)

	sess, err := a.Login(ctx, "reviewer@system.com", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, u.ID, sess.User.ID)

	p, err := a.Resolve(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, Principal{UserID: u.ID, Name: "Reviewer Priya", Role: models.RoleReviewer}, p)

	require.NoError(t, a.Logout(ctx, sess.Token))
	_, err = a.Resolve(ctx, sess.Token)
	assert.True(t, errors.Is(err, ErrUnauthenticated))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	a, _, _ := newTestAuth(t)

	_, err := a.Register(ctx, "General User", "user@system.com", "user123", models.RoleUser)
	require.NoError(t, err)

	_, err = a.Login(ctx, "user@system.com", "wrong")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))

	_, err = a.Login(ctx, "nobody@system.com", "user123")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestResolveUnknownToken(t *testing.T) {
	a, _, _ := newTestAuth(t)

	_, err := a.Resolve(context.Background(), "")
	assert.True(t, errors.Is(err, ErrUnauthenticated))

	_, err = a.Resolve(context.Background(), "not-a-session")
	assert.True(t, errors.Is(err, ErrUnauthenticated))
}

func TestSessionKeyHidesToken(t *testing.T) {
	ctx := context.Background()
	a, _, sessions := newTestAuth(t)

	_, err := a.Register(ctx, "General User", "user@system.com", "user123", models.RoleUser)
	require.NoError(t, err)
	sess, err := a.Login(ctx, "user@system.com", "user123")
	require.NoError(t, err)

	_, err = sessions.Get(ctx, sess.Token)
	assert.True(t, errors.Is(err, cache.ErrMiss), "raw token must not be a session key")
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	a, _, _ := newTestAuth(t)

	_, err := a.Register(ctx, "", "x@example.com", "pw", models.RoleUser)
	assert.True(t, errors.Is(err, ErrInvalidUser))

	_, err = a.Register(ctx, "X", "x@example.com", "pw", models.Role("superuser"))
	assert.True(t, errors.Is(err, ErrInvalidUser))

	_, err = a.Register(ctx, "X", "x@example.com", strings.Repeat("p", MaxPasswordBytes+1), models.RoleUser)
	assert.True(t, errors.Is(err, ErrInvalidUser), "bcrypt cannot hash past 72 bytes")

	_, err = a.Register(ctx, "X", "x@example.com", "pw", models.RoleUser)
	require.NoError(t, err)
	_, err = a.Register(ctx, "Y", "X@example.com", "pw", models.RoleAdmin)
	assert.True(t, errors.Is(err, storage.ErrDuplicateEmail))
}

func TestSeedDefaults(t *testing.T) {
	ctx := context.Background()
	a, repo, _ := newTestAuth(t)

	n, err := a.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	admins, err := repo.ListUsers(ctx, storage.UserFilter{Role: models.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "admin@system.com", admins[0].Email)

	_, err = a.Login(ctx, "reviewer@system.com", "reviewer123")
	assert.NoError(t, err)

	n, err = a.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "seeding runs only on an empty store")
}
