package figma

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stencil/internal/common"
	"github.com/ternarybob/stencil/internal/interfaces"
	"golang.org/x/time/rate"
)

// ErrNoToken is returned when a read tool is called without an API token
// configured.
var ErrNoToken = errors.New("no design tool API token configured")

// Client is the read-side REST client for the design tool's API. Responses
// are cached by URL so repeated tool calls stay inside the upstream rate
// limit; writes always go through the command bridge, never this client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    *rate.Limiter
	cache      interfaces.APICache
	cacheTTL   time.Duration
	logger     arbor.ILogger
}

// NewClient creates a design-tool API client from configuration. The cache
// is optional; a nil cache means every call hits the API.
func NewClient(config *common.FigmaConfig, cache interfaces.APICache, logger arbor.ILogger) *Client {
	rps := config.RateLimit
	if rps <= 0 {
		rps = 2
	}

	return &Client{
		httpClient: &http.Client{Timeout: config.RequestTimeoutValue()},
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		token:      config.Token,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		cache:      cache,
		cacheTTL:   config.CacheTTLValue(),
		logger:     logger,
	}
}

// GetFile fetches a file's document tree and metadata.
func (c *Client) GetFile(ctx context.Context, fileKey string) (map[string]interface{}, error) {
	return c.getJSON(ctx, "/files/"+url.PathEscape(fileKey))
}

// GetFileNodes fetches specific nodes from a file.
func (c *Client) GetFileNodes(ctx context.Context, fileKey string, nodeIDs []string) (map[string]interface{}, error) {
	path := fmt.Sprintf("/files/%s/nodes?ids=%s",
		url.PathEscape(fileKey), url.QueryEscape(strings.Join(nodeIDs, ",")))
	return c.getJSON(ctx, path)
}

// GetComments fetches a file's comments.
func (c *Client) GetComments(ctx context.Context, fileKey string) (map[string]interface{}, error) {
	return c.getJSON(ctx, "/files/"+url.PathEscape(fileKey)+"/comments")
}

func (c *Client) getJSON(ctx context.Context, path string) (map[string]interface{}, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var out map[string]interface{}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("malformed API response: %w", err)
	}
	return out, nil
}

// get serves from cache when fresh, otherwise rate-limits, fetches and
// stores the response.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if c.token == "" {
		return nil, ErrNoToken
	}

	requestURL := c.baseURL + path

	if c.cache != nil {
		if body, err := c.cache.Get(ctx, requestURL, c.cacheTTL); err == nil {
			c.logger.Debug().Str("url", requestURL).Msg("API response served from cache")
			return body, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("X-Figma-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read API response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned %d for %s", resp.StatusCode, path)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, requestURL, body); err != nil {
			c.logger.Warn().Err(err).Str("url", requestURL).Msg("Failed to cache API response")
		}
	}
	return body, nil
}
