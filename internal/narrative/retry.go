package narrative

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Retrying wraps a Generator with exponential backoff. MaxRetries of 0
// makes a single attempt.
type Retrying struct {
	Next         Generator
	MaxRetries   uint64
	InitialDelay time.Duration
}

// WithRetry wraps g. It returns g unchanged when maxRetries is 0.
func WithRetry(g Generator, maxRetries uint64) Generator {
	if maxRetries == 0 || g == nil {
		return g
	}
	return &Retrying{Next: g, MaxRetries: maxRetries}
}

func (r *Retrying) Generate(ctx context.Context, p Prompt) (string, error) {
	eb := backoff.NewExponentialBackOff()
	if r.InitialDelay > 0 {
		eb.InitialInterval = r.InitialDelay
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, r.MaxRetries), ctx)

	var out string
	err := backoff.Retry(func() error {
		text, err := r.Next.Generate(ctx, p)
		if err != nil {
			if !retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		out = text
		return nil
	}, policy)
	return out, err
}

type temporary interface {
	Temporary() bool
}

func retryable(err error) bool {
	if errors.Is(err, ErrNotConfigured) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var t temporary
	if errors.As(err, &t) {
		return t.Temporary()
	}
	return true
}
