package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when a remote backend cannot be reached.
var ErrUnavailable = errors.New("cache backend unavailable")

type transientError struct{ err error }

func (e transientError) Error() string { return e.err.Error() }
func (e transientError) Unwrap() error { return e.err }

// Transient marks err as worth retrying. Transient(nil) is nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return transientError{err}
}

// IsTransient reports whether err, or anything it wraps, was marked with
// [Transient].
func IsTransient(err error) bool {
	var t transientError
	return errors.As(err, &t)
}

// Backoff retries an operation while it fails with transient errors,
// doubling the wait after each attempt.
type Backoff struct {
	Attempts int
	Delay    time.Duration
}

// connectBackoff is used when dialing remote backends at startup.
var connectBackoff = Backoff{Attempts: 3, Delay: 500 * time.Millisecond}

// Do runs fn until it succeeds, fails permanently, ctx ends, or the attempts
// run out. The last error is returned.
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	delay := b.Delay
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil || !IsTransient(err) || attempt >= b.Attempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
}
