package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/site"
	"github.com/Naareman/UnlockEgypt-sub000/pkg/circuitbreaker"
	"github.com/Naareman/UnlockEgypt-sub000/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the content API client.
type ClientConfig struct {
	// BaseURL is the content API base URL.
	BaseURL string

	// APIKey authenticates catalog fetches (empty for public endpoints).
	APIKey string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL: baseURL,
		Timeout: 30 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client fetches the published site catalog from the content API.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
	retrier    *retry.Retrier
	breaker    *circuitbreaker.CircuitBreaker
	mapper     *Mapper
}

// NewClient creates a new content API client.
func NewClient(config ClientConfig) *Client {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:  logger,
		retrier: retry.ContentAPIRetrier(),
		breaker: circuitbreaker.ContentAPIBreaker(func(name string, from, to circuitbreaker.State) {
			logger.Warn("circuit state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		}),
		mapper: NewMapper(),
	}
}

// CatalogSnapshot is a fetched and validated catalog.
type CatalogSnapshot struct {
	// Version is the catalog version string.
	Version string

	// LastUpdated is when the pipeline last regenerated the catalog.
	LastUpdated time.Time

	// Sites is the validated domain site list.
	Sites []site.Site
}

// FetchCatalog downloads and validates the published catalog.
// Returns shared.ErrContentUnavailable when the API cannot be reached and
// shared.ErrContentMalformed when the envelope fails validation.
func (c *Client) FetchCatalog(ctx context.Context) (*CatalogSnapshot, error) {
	var env EnvelopeDTO

	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			return c.doGet(ctx, "/v1/catalog", &env)
		})
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) ||
			errors.Is(err, circuitbreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", shared.ErrContentUnavailable)
		}
		return nil, err
	}

	sites, err := c.mapper.SitesFromEnvelope(&env)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("catalog fetched",
		"version", env.Version, "sites", len(sites))

	return &CatalogSnapshot{
		Version:     env.Version,
		LastUpdated: env.LastUpdated,
		Sites:       sites,
	}, nil
}

// Version fetches only the published catalog version, used to skip full
// downloads when nothing changed.
func (c *Client) Version(ctx context.Context) (string, error) {
	var meta struct {
		Version string `json:"version"`
	}

	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			return c.doGet(ctx, "/v1/catalog/version", &meta)
		})
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) ||
			errors.Is(err, circuitbreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: circuit open", shared.ErrContentUnavailable)
		}
		return "", err
	}
	return meta.Version, nil
}

// IsHealthy checks if the content API is reachable.
func (c *Client) IsHealthy(ctx context.Context) bool {
	var body map[string]any
	return c.doGet(ctx, "/health", &body) == nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// doGet performs a single GET request and unmarshals the response. Errors are
// wrapped for the retrier: 5xx and network failures retryable, 4xx permanent.
func (c *Client) doGet(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isNetworkError(err) {
			return retry.Retryable(fmt.Errorf("%w: %v", shared.ErrContentUnavailable, err))
		}
		return retry.Permanent(fmt.Errorf("%w: %v", shared.ErrContentUnavailable, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return retry.Retryable(fmt.Errorf("%w: read response: %v", shared.ErrContentUnavailable, err))
	}

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return retry.Retryable(fmt.Errorf("%w: status %d", shared.ErrContentUnavailable, resp.StatusCode))
	case resp.StatusCode >= 400:
		var apiErr APIErrorDTO
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return retry.Permanent(&apiErr)
		}
		return retry.Permanent(fmt.Errorf("%w: status %d", shared.ErrContentUnavailable, resp.StatusCode))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return retry.Permanent(fmt.Errorf("%w: %v", shared.ErrContentMalformed, err))
	}
	return nil
}

func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, context.DeadlineExceeded)
}
