package tower

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound reports that the requested site does not exist on the tower.
var ErrNotFound = errors.New("site not found")

// ConfigAPI defines the configuration operations the dashboard needs.
// This interface is implemented by *Client and can be used for testing.
type ConfigAPI interface {
	ListSites(ctx context.Context) ([]SiteConfig, error)
	GetSite(ctx context.Context, id string) (*SiteConfig, error)
	CreateSite(ctx context.Context, body CreateSiteConfig) (*SiteConfig, error)
	UpdateSite(ctx context.Context, id string, body UpdateSiteConfig) (*SiteConfig, error)
	DeleteSite(ctx context.Context, id string) error
	RunCheck(ctx context.Context, id string) error
}

// Ensure Client implements ConfigAPI at compile time.
var _ ConfigAPI = (*Client)(nil)

// Client talks to the tower HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultAPIBase   = "127.0.0.1:8080"
	defaultUserAgent = "pingdeck/0.1"
	requestTimeout   = 10 * time.Second
)

// NewClient builds a Client using the provided apiBase host:port value.
func NewClient(apiBase string) (*Client, error) {
	base, err := parseBaseURL(apiBase)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// ListSites retrieves every configured site.
func (c *Client) ListSites(ctx context.Context) ([]SiteConfig, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload []SiteConfig
	if err := c.do(ctx, http.MethodGet, "/api/services", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// GetSite retrieves a single site by id.
func (c *Client) GetSite(ctx context.Context, id string) (*SiteConfig, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("site id required")
	}
	var payload SiteConfig
	if err := c.do(ctx, http.MethodGet, "/api/services/"+url.PathEscape(id), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// CreateSite registers a new site; the tower assigns the id.
func (c *Client) CreateSite(ctx context.Context, body CreateSiteConfig) (*SiteConfig, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload SiteConfig
	if err := c.do(ctx, http.MethodPost, "/api/services", body, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// UpdateSite applies a partial update to an existing site.
func (c *Client) UpdateSite(ctx context.Context, id string, body UpdateSiteConfig) (*SiteConfig, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("site id required")
	}
	var payload SiteConfig
	if err := c.do(ctx, http.MethodPut, "/api/services/"+url.PathEscape(id), body, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// DeleteSite removes a site from the tower.
func (c *Client) DeleteSite(ctx context.Context, id string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("site id required")
	}
	return c.do(ctx, http.MethodDelete, "/api/services/"+url.PathEscape(id), nil, nil)
}

// RunCheck asks the tower to probe a site immediately. The call only
// acknowledges scheduling; the resulting status arrives over the push
// channel like any other check result.
func (c *Client) RunCheck(ctx context.Context, id string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("site id required")
	}
	return c.do(ctx, http.MethodPost, "/api/services/"+url.PathEscape(id)+"/run", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	rel := &url.URL{Path: path}
	reqURL := c.baseURL.ResolveReference(rel)

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("api %s: %w", rel.String(), ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("api %s returned status %d", rel.String(), resp.StatusCode)
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(apiBase string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBase)
	if trimmed == "" {
		trimmed = defaultAPIBase
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_base %q: %w", apiBase, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
