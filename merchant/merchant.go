package merchant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"anarchy.ttfm/payin/apierror"
	"anarchy.ttfm/payin/currencies"
	"anarchy.ttfm/payin/quote"
	"anarchy.ttfm/payin/random"
	"anarchy.ttfm/payin/transactions"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config holds the configuration of a merchant API client.
type Config struct {
	// Base origin of the API, without a trailing slash
	// Example: https://api.sandbox.bvnk.com
	BaseURL string
	// Custom headers to send with every request
	CustomHeaders map[string]string
	// HTTP Client to use
	Client *http.Client
	// Logger to use
	Logger zerolog.Logger
}

// Client issues the remote operations of the pay-in journey against
// the merchant API and classifies its rejections
type Client struct {
	baseURL string
	headers map[string]string
	client  *http.Client
	logger  zerolog.Logger
}

var _ quote.Service = (*Client)(nil)
var _ currencies.Source = (*Client)(nil)

func New(config Config) (c *Client) {
	c = &Client{
		baseURL: config.BaseURL,
		headers: config.CustomHeaders,
		client:  config.Client,
		logger:  config.Logger,
	}
	if c.client == nil {
		c.client = http.DefaultClient
	}
	return c
}

// Summary fetches the transaction snapshot
func (c *Client) Summary(ctx context.Context, id uuid.UUID) (summary transactions.Summary, err error) {
	path := fmt.Sprintf("/api/v1/pay/%s/summary", id)
	err = c.do(ctx, http.MethodGet, path, nil, &summary)
	if err != nil {
		return summary, fmt.Errorf("failed to fetch summary: %w", err)
	}

	err = summary.Validate()
	if err != nil {
		return summary, fmt.Errorf("invalid summary response: %w", err)
	}
	return summary, nil
}

// UpdateSummary quotes the transaction in the requested currency
func (c *Client) UpdateSummary(ctx context.Context, id uuid.UUID, req transactions.UpdateSummaryRequest) (summary transactions.Summary, err error) {
	path := fmt.Sprintf("/api/v1/pay/%s/update/summary", id)
	err = c.do(ctx, http.MethodPut, path, &req, &summary)
	if err != nil {
		return summary, fmt.Errorf("failed to update summary: %w", err)
	}

	err = summary.Validate()
	if err != nil {
		return summary, fmt.Errorf("invalid summary response: %w", err)
	}
	return summary, nil
}

// AcceptSummary confirms the current quote. A 200 means accepted
func (c *Client) AcceptSummary(ctx context.Context, id uuid.UUID) (err error) {
	path := fmt.Sprintf("/api/v1/pay/%s/accept/summary", id)
	err = c.do(ctx, http.MethodPut, path, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to accept summary: %w", err)
	}
	return nil
}

// SupportedCurrencies lists the settlement currencies the API supports.
// The API holds well under the max, so a single page covers everything
func (c *Client) SupportedCurrencies(ctx context.Context) (list []currencies.Currency, err error) {
	err = c.do(ctx, http.MethodGet, "/api/currency/crypto?max=100", nil, &list)
	if err != nil {
		return nil, fmt.Errorf("failed to list supported currencies: %w", err)
	}
	return list, nil
}

const requestIdLength = 16

func (c *Client) do(ctx context.Context, method, path string, body, out any) (err error) {
	var reader io.Reader
	if body != nil {
		contents, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(contents)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to prepare request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", random.String(random.CryptoRand(), random.CharsetAlphaNumeric, requestIdLength))
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer res.Body.Close()

	contents, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		c.logger.Debug().
			Int("status", res.StatusCode).
			Str("path", path).
			Msg("merchant api rejected the request")
		return apierror.Classify(&apierror.HTTPError{StatusCode: res.StatusCode, Body: contents})
	}

	if out == nil {
		return nil
	}

	err = json.Unmarshal(contents, out)
	if err != nil {
		return fmt.Errorf("failed to unmarshal response body: %w", err)
	}
	return nil
}
