package osuapi

import (
	"context"
	"sync"
	"time"
)

// Limiter allows at most limit requests per window, spaced out by a ticker,
// with at most concurrent requests in flight.
type Limiter struct {
	limit  int
	window time.Duration
	ticker *time.Ticker

	mu       sync.Mutex
	attempts []time.Time

	tokens chan struct{}
}

func NewLimiter(limit int, window time.Duration, concurrent int) *Limiter {
	limit = max(limit, 1)
	concurrent = max(concurrent, 1)
	l := &Limiter{
		limit:  limit,
		window: window,
		ticker: time.NewTicker(window / time.Duration(limit)),
		tokens: make(chan struct{}, concurrent),
	}
	for range concurrent {
		l.tokens <- struct{}{}
	}
	return l
}

// Acquire blocks until a request slot is free. The returned func gives it
// back.
func (l *Limiter) Acquire(ctx context.Context) (func(), error) {
	select {
	case <-l.tokens:
		return func() { l.tokens <- struct{}{} }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Wait blocks until the next tick at which the window has room.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.ticker.C:
		}
		l.mu.Lock()
		att := l.attempts
		if len(att) < l.limit || time.Since(att[0]) > l.window {
			att = append(att, time.Now())
			if len(att) > l.limit {
				att = att[1:]
			}
			l.attempts = att
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()
	}
}

func (l *Limiter) Stop() { l.ticker.Stop() }
