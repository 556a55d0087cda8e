package clock

import (
	"context"
	"time"
)

// Clock abstracts time for capture timestamps and replay waits.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
	After(d time.Duration) <-chan time.Time
}

// Real delegates to the time package.
type Real struct{}

func NewReal() Real { return Real{} }

func (Real) Now() time.Time                         { return time.Now() }
func (Real) Since(t time.Time) time.Duration        { return time.Since(t) }
func (Real) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Sleep blocks for d on clk or until ctx is done. Non-positive durations
// return immediately without touching the clock.
func Sleep(ctx context.Context, clk Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-clk.After(d):
		return nil
	}
}
