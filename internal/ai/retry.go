// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"context"
	"regexp"
	"strconv"
	"time"
)

// retryBaseDelay is the wait before a rate-limited retry when the API
// did not suggest one. Tests override this to avoid real sleeps.
var retryBaseDelay = 10 * time.Second

const defaultMaxAttempts = 3

// suggestedDelayRe matches the retry hint Gemini embeds in 429 bodies,
// e.g. "Please retry in a bit. seconds: 29".
var suggestedDelayRe = regexp.MustCompile(`seconds:\s*(\d+)`)

// RetryBackend wraps a Backend and retries rate-limited calls. Only 429s
// are retried; any other error propagates immediately. The wait honors
// the delay the API suggests in the error body, falling back to
// retryBaseDelay.
type RetryBackend struct {
	Backend Backend

	// MaxAttempts caps the total number of calls (default 3).
	MaxAttempts int
}

// Generate calls the wrapped backend, sleeping between rate-limited
// attempts. The last error is returned once attempts are exhausted.
func (b *RetryBackend) Generate(ctx context.Context, prompt string) (string, error) {
	attempts := b.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := b.Backend.Generate(ctx, prompt)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !IsRateLimited(err) || attempt == attempts {
			return "", err
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(suggestedDelay(err)):
		}
	}
	return "", lastErr
}

// suggestedDelay extracts the API's retry hint from the error text.
func suggestedDelay(err error) time.Duration {
	m := suggestedDelayRe.FindStringSubmatch(err.Error())
	if len(m) == 2 {
		if secs, convErr := strconv.Atoi(m[1]); convErr == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return retryBaseDelay
}
