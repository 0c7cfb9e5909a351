// Package sales submits finalised checkouts to the remote sales service.
package sales

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/angelmondragon/packfinderz-pos/pkg/config"
	pkgerrors "github.com/angelmondragon/packfinderz-pos/pkg/errors"
	"github.com/angelmondragon/packfinderz-pos/pkg/logger"
)

const (
	salesPath                   = "sales"
	responseBodyReadLimit int64 = 4096

	headerIdempotencyKey = "Idempotency-Key"
)

// Submitter records a sale. Implementations must send idempotencyKey so the
// service can de-duplicate retries.
type Submitter interface {
	Submit(ctx context.Context, bearer, idempotencyKey string, req SaleRequest) (*SaleResponse, error)
}

// Client calls the sales service through a circuit breaker.
type Client struct {
	httpClient *http.Client
	baseURL    string
	breaker    *gobreaker.CircuitBreaker[*SaleResponse]
	logg       *logger.Logger
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

// WithLogger reports breaker state changes.
func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		c.logg = logg
	}
}

// NewClient builds the sales client from cfg.
func NewClient(cfg config.SalesConfig, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("sales base url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.breaker = gobreaker.NewCircuitBreaker[*SaleResponse](c.breakerSettings(cfg))
	return c, nil
}

func (c *Client) breakerSettings(cfg config.SalesConfig) gobreaker.Settings {
	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	return gobreaker.Settings{
		Name:        "sales-service",
		MaxRequests: 1,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return !countsAgainstBreaker(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if c.logg == nil {
				return
			}
			ctx := c.logg.WithFields(context.Background(), map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			c.logg.Warn(ctx, "sales breaker state changed")
		},
	}
}

// State exposes the breaker state for readiness reporting.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

// Submit posts the sale. An open breaker fails fast with SUBMISSION_FAILED.
func (c *Client) Submit(ctx context.Context, bearer, idempotencyKey string, req SaleRequest) (*SaleResponse, error) {
	if strings.TrimSpace(idempotencyKey) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "idempotency key is required")
	}
	resp, err := c.breaker.Execute(func() (*SaleResponse, error) {
		return c.post(ctx, bearer, idempotencyKey, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeSubmission, err, "sales service unavailable")
	}
	return resp, err
}

func (c *Client) post(ctx context.Context, bearer, idempotencyKey string, req SaleRequest) (*SaleResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal sale request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+salesPath, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeSubmission, err, "build sale request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+bearer)
	httpReq.Header.Set(headerIdempotencyKey, idempotencyKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeSubmission, err, "execute sale request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeSubmission, err, "read sale response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, mapFailure(resp.StatusCode, body)
	}

	var out SaleResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeSubmission, err, "decode sale response")
	}
	if strings.TrimSpace(out.ReceiptNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeSubmission, "sale response missing receipt number")
	}
	return &out, nil
}

// countsAgainstBreaker is true for transport failures and 5xx answers.
// Business rejections mean the service is up.
func countsAgainstBreaker(err error) bool {
	typed := pkgerrors.As(err)
	if err == nil || typed == nil || typed.Code() != pkgerrors.CodeSubmission {
		return false
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		return true
	}
	status, ok := details["status"].(int)
	return !ok || status >= http.StatusInternalServerError
}

// mapFailure turns a non-2xx answer into the typed checkout error.
func mapFailure(status int, body []byte) error {
	var remote errorResponse
	_ = json.Unmarshal(body, &remote)

	message := strings.TrimSpace(remote.Error)
	if message == "" {
		message = http.StatusText(status)
	}
	details := map[string]any{
		"source":      "sales_service",
		"status":      status,
		"remote_code": remote.Code,
	}
	if remote.Details != nil {
		details["remote_details"] = remote.Details
	}

	switch {
	case remote.Code == remoteStockConflict:
		return pkgerrors.New(pkgerrors.CodeStockConflict, message).WithDetails(details)
	case remote.Code == remoteTokenExpired, remote.Code == remoteInvalidToken, status == http.StatusUnauthorized:
		return pkgerrors.New(pkgerrors.CodeAuthExpired, message).WithDetails(details)
	case remote.Code == remoteValidation:
		return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(details)
	default:
		snippet := string(body)
		if int64(len(snippet)) > responseBodyReadLimit {
			snippet = snippet[:responseBodyReadLimit]
		}
		return pkgerrors.Wrap(pkgerrors.CodeSubmission, fmt.Errorf("status %d: %s", status, strings.TrimSpace(snippet)), "sale request failed").
			WithDetails(details)
	}
}
