package kobo

import (
	"net/http"
	"time"
)

const (
	baseDelay = 3 * time.Second
	maxDelay  = 30 * time.Second

	// The listing endpoint answers from the database; the data endpoint
	// renders the whole export and is the critical path, so it gets the
	// larger budget.
	listingAttempts = 5
	dataAttempts    = 7
)

// transientStatus reports whether a status code signals Kobo overload or a
// flaky upstream, the kind of failure a later attempt may not see.
func transientStatus(code int) bool {
	switch code {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// retryDelay returns the backoff before retry n (0-based): 3s doubling each
// time, capped at 30s.
func retryDelay(n int) time.Duration {
	d := baseDelay << n
	if d <= 0 || d > maxDelay {
		return maxDelay
	}
	return d
}
