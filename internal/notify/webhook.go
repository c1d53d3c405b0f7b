// Package notify posts workflow events to an outbound webhook.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bilgisen/factcheck/internal/models"
)

const (
	EventFlagged   = "article.flagged"
	EventFinalized = "article.finalized"
)

// Event is the JSON body delivered to the webhook
type Event struct {
	Type         string         `json:"event"`
	ArticleID    string         `json:"article_id"`
	Title        string         `json:"title"`
	Status       models.Status  `json:"status"`
	MLPrediction models.Verdict `json:"ml_prediction"`
	FinalVerdict models.Verdict `json:"final_verdict,omitempty"`
	ReviewedBy   string         `json:"reviewed_by,omitempty"`
	VerifiedBy   string         `json:"admin_verified_by,omitempty"`
	OccurredAt   time.Time      `json:"occurred_at"`
}

func newEvent(kind string, a *models.Article, at time.Time) Event {
	return Event{
		Type:         kind,
		ArticleID:    a.ID,
		Title:        a.Title,
		Status:       a.Status,
		MLPrediction: a.MLPrediction,
		FinalVerdict: a.FinalVerdict,
		ReviewedBy:   a.ReviewedBy,
		VerifiedBy:   a.AdminVerifiedBy,
		OccurredAt:   at.UTC(),
	}
}

// Webhook sends escalations and finalizations to a single URL.
// Transient failures are retried by resty.
type Webhook struct {
	client *resty.Client
	url    string
	now    func() time.Time
}

func NewWebhook(url string, timeout time.Duration) *Webhook {
	return &Webhook{
		client: resty.New().
			SetTimeout(timeout).
			SetRetryCount(3).
			SetRetryWaitTime(500 * time.Millisecond).
			SetRetryMaxWaitTime(5 * time.Second).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				return err != nil || (r != nil && r.StatusCode() >= http.StatusInternalServerError)
			}),
		url: url,
		now: time.Now,
	}
}

func (w *Webhook) ArticleFlagged(ctx context.Context, a *models.Article) error {
	return w.send(ctx, newEvent(EventFlagged, a, w.now()))
}

func (w *Webhook) ArticleFinalized(ctx context.Context, a *models.Article) error {
	return w.send(ctx, newEvent(EventFinalized, a, w.now()))
}

func (w *Webhook) send(ctx context.Context, ev Event) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(ev).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("post %s to webhook: %w", ev.Type, err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned status %d for %s", resp.StatusCode(), ev.Type)
	}
	return nil
}
