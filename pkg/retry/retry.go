package retry

import (
	"context"
	"errors"
	"net"
	"net/url"
	"time"
)

const (
	DefaultAttempts  = 3
	DefaultBaseDelay = time.Second
)

// Decision is what a Classifier says about a failed attempt. A positive After
// replaces the exponential backoff for the next attempt.
type Decision struct {
	Retry bool
	After time.Duration
}

type Classifier func(err error) Decision

type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	Classify  Classifier
	// Sleep waits between attempts. It must return early when ctx is done.
	Sleep   func(ctx context.Context, d time.Duration) error
	OnRetry func(attempt int, delay time.Duration, err error)
}

func DefaultPolicy(classify Classifier) Policy {
	return Policy{
		Attempts:  DefaultAttempts,
		BaseDelay: DefaultBaseDelay,
		Classify:  classify,
	}
}

// Do runs op until it succeeds, the classifier calls an error terminal, or
// the attempts run out. The last error is returned unchanged.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	classify := p.Classify
	if classify == nil {
		classify = Network
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	for attempt := 1; ; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}

		decision := classify(err)
		if !decision.Retry || attempt >= attempts {
			return zero, err
		}

		delay := decision.After
		if delay <= 0 {
			delay = Backoff(base, attempt)
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}

		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
}

// Backoff is base doubled once per failed attempt: base, 2*base, 4*base...
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base << (attempt - 1)
}

func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Network retries transient dial and timeout failures.
func Network(err error) Decision {
	return Decision{Retry: IsTransientNetworkError(err)}
}

func IsTransientNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() || opErr.Op == "dial" || opErr.Op == "read" {
			return true
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		if urlErr.Err != nil && !errors.Is(urlErr.Err, err) {
			return IsTransientNetworkError(urlErr.Err)
		}
	}

	return false
}
