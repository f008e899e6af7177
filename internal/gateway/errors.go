package gateway

import (
	"context"
	"errors"
	"net"
	"net/url"

	"github.com/canoncourt/canoncourt/internal/llm"
)

// Error kinds surfaced by Invoke. Callers match with errors.Is.
var (
	// ErrRateLimited: the hosted API refused the request for quota reasons.
	// Retried with backoff; the local budget unit is already spent.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrTransient: network failure or timeout that may resolve by waiting.
	// Retried with backoff.
	ErrTransient = errors.New("transient network error")

	// ErrModel: the API rejected the request itself (bad model name, oversized
	// prompt, auth). Waiting cannot fix it, so it is never retried.
	ErrModel = errors.New("model error")
)

// classify maps a provider error onto the retry taxonomy
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTransient
	}

	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429:
			return ErrRateLimited
		case apiErr.StatusCode >= 500, apiErr.StatusCode == 408:
			return ErrTransient
		default:
			return ErrModel
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrTransient
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ErrTransient
	}

	return ErrModel
}
