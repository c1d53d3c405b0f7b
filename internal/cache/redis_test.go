package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a live server only when TEST_REDIS_URL is set
func TestRedisClientRoundTrip(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx := context.Background()

	r, err := NewRedisClient(ctx, url, "factcheck:test:")
	require.NoError(t, err)
	defer r.Close()
	defer r.Clear(ctx)

	require.NoError(t, r.Put(ctx, "k", "user-1", time.Minute))
	v, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "user-1", v)

	require.NoError(t, r.Delete(ctx, "k"))
	_, err = r.Get(ctx, "k")
	assert.True(t, errors.Is(err, ErrMiss))
}

func TestNewRedisClientRejectsBadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not a url", "p:")
	assert.Error(t, err)
}
