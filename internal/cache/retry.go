package cache

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// fetchWithRetry runs fetch, retrying errors accepted by the retry predicate
// with exponential backoff. Other errors fail fast.
func (c *Cache) fetchWithRetry(ctx context.Context, fetch Fetcher) (any, error) {
	policy := c.retry

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = policy.base
	exp.Multiplier = 2
	exp.MaxInterval = policy.max
	exp.MaxElapsedTime = 0
	exp.Reset()

	attempts := 0
	for {
		data, err := fetch(ctx)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil || !policy.retryIf(err) || attempts >= policy.attempts {
			return nil, err
		}

		attempts++
		wait := exp.NextBackOff()
		c.logger.Debug().Err(err).Int("attempt", attempts).Dur("wait", wait).Msg("cache fetch retry")

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, err
		}
	}
}
