package crawler

import (
	"context"
	"time"
)

// DefaultArticleDelay separates consecutive article fetches.
const DefaultArticleDelay = 500 * time.Millisecond

// pauseController abstracts how the crawler waits between origin requests.
type pauseController interface {
	Pause(ctx context.Context, delay time.Duration) error
}

type timerPauseController struct{}

// Pause sleeps for delay and returns early with ctx's error on cancellation.
func (p *timerPauseController) Pause(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
