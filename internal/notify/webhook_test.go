package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bilgisen/factcheck/internal/models"
)

func TestWebhookDeliversEvent(t *testing.T) {
	var got Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	w := NewWebhook(srv.URL, time.Second)
	w.now = func() time.Time { return at }

	article := &models.Article{
		ID:           "a1",
		Title:        "Miracle cure",
		Status:       models.StatusReviewed,
		MLPrediction: models.VerdictFake,
		FinalVerdict: models.VerdictFake,
		ReviewedBy:   "rev-1",
	}
	require.NoError(t, w.ArticleFlagged(context.Background(), article))

	assert.Equal(t, EventFlagged, got.Type)
	assert.Equal(t, "a1", got.ArticleID)
	assert.Equal(t, models.StatusReviewed, got.Status)
	assert.Equal(t, "rev-1", got.ReviewedBy)
	assert.True(t, at.Equal(got.OccurredAt))
}

func TestWebhookRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, time.Second)
	w.client.SetRetryWaitTime(time.Millisecond).SetRetryMaxWaitTime(5 * time.Millisecond)

	require.NoError(t, w.ArticleFinalized(context.Background(), &models.Article{ID: "a1"}))
	assert.EqualValues(t, 3, calls.Load())
}

func TestWebhookReportsClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, time.Second)
	err := w.ArticleFinalized(context.Background(), &models.Article{ID: "a1"})
	assert.ErrorContains(t, err, "401")
	assert.EqualValues(t, 1, calls.Load(), "4xx responses are not retried")
}
