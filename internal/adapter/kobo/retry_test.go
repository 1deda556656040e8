package kobo

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		n    int
		want time.Duration
	}{
		{0, 3 * time.Second},
		{1, 6 * time.Second},
		{2, 12 * time.Second},
		{3, 24 * time.Second},
		{4, 30 * time.Second},
		{5, 30 * time.Second},
		{40, 30 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, retryDelay(tt.n), "retry %d", tt.n)
	}
}

func TestTransientStatus(t *testing.T) {
	for _, code := range []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout} {
		assert.True(t, transientStatus(code), "status %d", code)
	}
	for _, code := range []int{http.StatusOK, http.StatusUnauthorized, http.StatusForbidden,
		http.StatusNotFound, http.StatusTooManyRequests, http.StatusInternalServerError} {
		assert.False(t, transientStatus(code), "status %d", code)
	}
}
