package bot

import (
	"context"
	"time"
)

// DefaultThinkingDelay is the pause before each opponent action so a watching
// player can follow along.
const DefaultThinkingDelay = 1500 * time.Millisecond

// Clock paces the opponent. Tests use NoDelay.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock waits on a timer and returns early when ctx is done.
type RealClock struct{}

func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NoDelay never waits but still honours cancellation.
type NoDelay struct{}

func (NoDelay) Sleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}
