package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/packfinderz-pos/pkg/auth"
	pkgerrors "github.com/angelmondragon/packfinderz-pos/pkg/errors"
)

const (
	productsPath               = "products"
	responseBodyReadLimit int64 = 1024
)

// Lookup fetches the products matching a query.
type Lookup interface {
	Products(ctx context.Context, q Query) ([]Product, error)
}

// Client calls the remote catalog service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	creds      auth.Source
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithCredentials attaches the bearer credential provider.
func WithCredentials(src auth.Source) Option {
	return func(c *Client) {
		c.creds = src
	}
}

// NewClient builds a catalog client for baseURL.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("catalog base url is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Products performs GET {base}/products for q.
func (c *Client) Products(ctx context.Context, q Query) ([]Product, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog client not configured")
	}
	if strings.TrimSpace(q.StoreID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(q), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build catalog request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.creds != nil {
		token, err := c.creds.Bearer(ctx)
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute catalog request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, pkgerrors.New(pkgerrors.CodeAuthExpired, "catalog rejected the credential")
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "catalog request failed")
	}

	var apiResp struct {
		Data []Product `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode catalog response")
	}
	for i := range apiResp.Data {
		if apiResp.Data[i].AvailableStock < 0 {
			apiResp.Data[i].AvailableStock = 0
		}
	}
	return apiResp.Data, nil
}

func (c *Client) buildURL(q Query) string {
	values := url.Values{}
	values.Set("store_id", q.StoreID)
	if q.Category != "" {
		values.Set("category", q.Category)
	}
	if q.Search != "" {
		values.Set("q", q.Search)
	}
	return fmt.Sprintf("%s/%s?%s", c.baseURL, productsPath, values.Encode())
}
