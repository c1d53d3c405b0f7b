package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bilgisen/factcheck/internal/logger"
	"github.com/bilgisen/factcheck/internal/models"
)

// Observer is told about transitions after they are stored.
// Errors are logged by the caller and never undo the transition.
type Observer interface {
	// ArticleFlagged fires when a reviewer escalates an article to an admin
	ArticleFlagged(ctx context.Context, article *models.Article) error
	// ArticleFinalized fires when an admin verifies an article
	ArticleFinalized(ctx context.Context, article *models.Article) error
}

// NopObserver ignores every event
type NopObserver struct{}

func (NopObserver) ArticleFlagged(context.Context, *models.Article) error   { return nil }
func (NopObserver) ArticleFinalized(context.Context, *models.Article) error { return nil }

// Observers fans an event out to each observer in order
type Observers []Observer

func (o Observers) ArticleFlagged(ctx context.Context, article *models.Article) error {
	var errs []error
	for _, obs := range o {
		if err := obs.ArticleFlagged(ctx, article); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (o Observers) ArticleFinalized(ctx context.Context, article *models.Article) error {
	var errs []error
	for _, obs := range o {
		if err := obs.ArticleFinalized(ctx, article); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AsyncObserver delivers events on background goroutines so slow webhooks or
// uploads never hold up a request. Call Wait before shutting down.
type AsyncObserver struct {
	next    Observer
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAsyncObserver(next Observer, timeout time.Duration) *AsyncObserver {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AsyncObserver{next: next, timeout: timeout}
}

func (a *AsyncObserver) ArticleFlagged(ctx context.Context, article *models.Article) error {
	a.dispatch(ctx, "flagged", article.Clone(), a.next.ArticleFlagged)
	return nil
}

func (a *AsyncObserver) ArticleFinalized(ctx context.Context, article *models.Article) error {
	a.dispatch(ctx, "finalized", article.Clone(), a.next.ArticleFinalized)
	return nil
}

func (a *AsyncObserver) dispatch(ctx context.Context, event string, article *models.Article, fn func(context.Context, *models.Article) error) {
	// the request context ends with the response
	ctx = context.WithoutCancel(ctx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		ctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()

		if err := fn(ctx, article); err != nil {
			logger.Get().Warn().
				Err(err).
				Str("event", event).
				Str("article_id", article.ID).
				Msg("Observer failed")
		}
	}()
}

// Wait blocks until every pending delivery finishes or ctx is done
func (a *AsyncObserver) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
