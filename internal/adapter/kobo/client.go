package kobo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/reforestamx/kobo-portal-etl/internal/config"
	"github.com/reforestamx/kobo-portal-etl/internal/observability"
)

// Endpoint labels used in logs and metrics.
const (
	endpointListing = "listing"
	endpointData    = "data"
)

// ExportSetting is the slice of a Kobo export-settings entry the sync needs.
type ExportSetting struct {
	UID   string `json:"uid"`
	Name  string `json:"name"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Client talks to the Kobo v2 API for one asset. It implements
// pipeline.Source.
type Client struct {
	baseURL    string
	token      string
	asset      string
	exportName string

	httpClient *http.Client
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics

	// Per-attempt timeouts and attempt budgets by endpoint.
	listTimeout time.Duration
	dataTimeout time.Duration
	listTries   int
	dataTries   int
}

// NewClient creates a Kobo API client from the sync configuration.
func NewClient(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL:     cfg.BaseURL,
		token:       cfg.Token,
		asset:       cfg.AssetUID,
		exportName:  cfg.ExportName,
		httpClient:  &http.Client{},
		clock:       clockwork.NewRealClock(),
		logger:      logger,
		metrics:     metrics,
		listTimeout: cfg.ListTimeout,
		dataTimeout: cfg.DataTimeout,
		listTries:   listingAttempts,
		dataTries:   dataAttempts,
	}
}

// FetchExport locates the configured export setting and downloads its
// rendered CSV.
func (c *Client) FetchExport(ctx context.Context) ([]byte, error) {
	setting, err := c.LocateExport(ctx, c.exportName)
	if err != nil {
		return nil, err
	}

	url, err := c.DataURL(setting)
	if err != nil {
		return nil, err
	}

	c.logger.Info("downloading export", "name", c.exportName, "url", url)
	return c.DownloadData(ctx, url)
}

// ListExportSettings fetches every export setting of the asset, following
// pagination links until exhausted.
func (c *Client) ListExportSettings(ctx context.Context) ([]ExportSetting, error) {
	url := fmt.Sprintf("%s/api/v2/assets/%s/export-settings/", c.baseURL, c.asset)

	var out []ExportSetting
	for url != "" {
		body, err := c.getWithRetry(ctx, url, endpointListing, c.listTimeout, c.listTries)
		if err != nil {
			return nil, err
		}

		settings, next, err := decodeListing(body)
		if err != nil {
			return nil, err
		}
		out = append(out, settings...)
		url = next
	}
	return out, nil
}

// LocateExport finds the export setting whose name (or, lacking one, title)
// equals name. With duplicate names the last one wins, matching how exports
// saved twice from the Kobo UI behave.
func (c *Client) LocateExport(ctx context.Context, name string) (ExportSetting, error) {
	settings, err := c.ListExportSettings(ctx)
	if err != nil {
		return ExportSetting{}, err
	}
	if len(settings) == 0 {
		return ExportSetting{}, ErrNoExportSettings
	}

	var found *ExportSetting
	available := make([]string, 0, len(settings))
	for i, s := range settings {
		label := strings.TrimSpace(s.Name)
		if label == "" {
			label = strings.TrimSpace(s.Title)
		}
		if label != "" {
			available = append(available, label)
		}
		if label == name {
			found = &settings[i]
		}
	}

	if found == nil {
		return ExportSetting{}, &ExportNotFoundError{Name: name, Available: available}
	}
	return *found, nil
}

// DataURL derives the stable data.csv endpoint from an export setting. The
// setting's own url is preferred; a uid-only setting gets the canonical path
// rebuilt. Relative urls resolve against the configured base. The stable
// endpoint avoids the /private-media/ links, which 502 under load.
func (c *Client) DataURL(s ExportSetting) (string, error) {
	settingsURL := s.URL
	if settingsURL == "" {
		if s.UID == "" {
			return "", &MalformedSettingError{Name: s.Name}
		}
		settingsURL = fmt.Sprintf("/api/v2/assets/%s/export-settings/%s/", c.asset, s.UID)
	}
	if strings.HasPrefix(settingsURL, "/") {
		settingsURL = c.baseURL + settingsURL
	}
	return strings.TrimRight(settingsURL, "/") + "/data.csv", nil
}

// DownloadData fetches the rendered CSV export body.
func (c *Client) DownloadData(ctx context.Context, url string) ([]byte, error) {
	return c.getWithRetry(ctx, url, endpointData, c.dataTimeout, c.dataTries)
}

// getWithRetry issues a GET and retries transient failures (502/503/504 and
// network-level errors) with exponential backoff. Other HTTP error statuses
// abort immediately. tries bounds the total number of attempts.
func (c *Client) getWithRetry(ctx context.Context, url, endpoint string, timeout time.Duration, tries int) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < tries; attempt++ {
		if attempt > 0 {
			c.metrics.HTTPRetries.WithLabelValues(endpoint).Inc()
			if err := c.sleep(ctx, retryDelay(attempt-1)); err != nil {
				return nil, err
			}
		}

		body, err := c.get(ctx, url, endpoint, timeout)
		if err == nil {
			return body, nil
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !transientStatus(statusErr.Code) {
			return nil, err
		}

		lastErr = err
		c.logger.Warn("kobo request failed, will retry",
			"endpoint", endpoint, "url", url,
			"attempt", attempt+1, "tries", tries, "error", err)
	}
	return nil, &DownloadError{URL: url, Attempts: tries, Err: lastErr}
}

// get performs a single authenticated request attempt under its own timeout.
func (c *Client) get(ctx context.Context, url, endpoint string, timeout time.Duration) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)

	start := c.clock.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.HTTPRequestDuration.WithLabelValues(endpoint).Observe(c.clock.Since(start).Seconds())
	if err != nil {
		c.metrics.HTTPRequests.WithLabelValues(endpoint, "transient").Inc()
		return nil, fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		outcome := "error"
		if transientStatus(resp.StatusCode) {
			outcome = "transient"
		}
		c.metrics.HTTPRequests.WithLabelValues(endpoint, outcome).Inc()
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.HTTPRequests.WithLabelValues(endpoint, "transient").Inc()
		return nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}
	c.metrics.HTTPRequests.WithLabelValues(endpoint, "success").Inc()
	return body, nil
}

// sleep waits d on the injected clock, honoring cancellation.
func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.clock.After(d):
		return nil
	}
}

// decodeListing accepts both shapes the listing endpoint produces: the
// paginated {results, next} envelope and a bare array.
func decodeListing(raw []byte) ([]ExportSetting, string, error) {
	var page struct {
		Results []ExportSetting `json:"results"`
		Next    string          `json:"next"`
	}
	if err := json.Unmarshal(raw, &page); err == nil {
		return page.Results, page.Next, nil
	}

	var bare []ExportSetting
	if err := json.Unmarshal(raw, &bare); err == nil {
		return bare, "", nil
	}
	return nil, "", errors.New("decode export settings listing: payload is neither an envelope nor a list")
}
