package provider

import (
	"context"
	"errors"
	"time"

	domainErrors "github.com/mwangikib/coursepay/internal/domain/errors"
)

const (
	defaultAttempts = 3
	defaultBackoff  = 500 * time.Millisecond
)

// withRetry runs fn, retrying transient provider failures with doubling
// backoff. Business rejections are terminal and returned immediately.
func withRetry(ctx context.Context, attempts int, backoff time.Duration, fn func() error) error {
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		var rejected domainErrors.ProviderRejectedError
		if errors.As(err, &rejected) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff << i):
		}
	}
	return err
}
