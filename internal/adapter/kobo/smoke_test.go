//go:build kobo

package kobo

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reforestamx/kobo-portal-etl/internal/observability"
)

// These tests hit the real Kobo API and require valid KOBO_TOKEN and
// KOBO_ASSET_UID env vars.
// Run with: go test -tags=kobo ./internal/adapter/kobo/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("KOBO_TOKEN")
	asset := os.Getenv("KOBO_ASSET_UID")
	if token == "" || asset == "" {
		t.Fatal("KOBO_TOKEN and KOBO_ASSET_UID must be set to run smoke tests")
	}

	base := os.Getenv("KOBO_BASE_URL")
	if base == "" {
		base = "https://kf.kobotoolbox.org"
	}

	return &Client{
		baseURL:     base,
		token:       token,
		asset:       asset,
		exportName:  os.Getenv("KOBO_EXPORT_NAME"),
		httpClient:  &http.Client{},
		clock:       clockwork.NewRealClock(),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:     observability.NewMetricsForTesting(),
		listTimeout: 120 * time.Second,
		dataTimeout: 240 * time.Second,
		listTries:   listingAttempts,
		dataTries:   dataAttempts,
	}
}

func TestSmoke_ListExportSettings(t *testing.T) {
	c := smokeClient(t)

	settings, err := c.ListExportSettings(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, settings, "asset should have at least one saved export")

	for _, s := range settings {
		t.Logf("export setting uid=%s name=%q title=%q", s.UID, s.Name, s.Title)
	}
}

func TestSmoke_FetchExport(t *testing.T) {
	c := smokeClient(t)
	if c.exportName == "" {
		t.Skip("KOBO_EXPORT_NAME not set")
	}

	body, err := c.FetchExport(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, body)
	t.Logf("downloaded %d bytes", len(body))
}
