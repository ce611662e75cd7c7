// Package meta talks to the Meta Graph API: Instagram media containers,
// publishing, Facebook Page posts and long-lived token exchange.
//
// Platform error payloads are converted into the models error taxonomy here;
// code 190 always becomes *models.CredentialExpiredError.
package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/maheshrc27/contentflow/internal/models"
	"github.com/maheshrc27/contentflow/internal/transfer"
	"github.com/maheshrc27/contentflow/pkg/logging"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL         = "https://graph.facebook.com/v21.0"
	DefaultPollInterval    = 3 * time.Second
	DefaultMaxPollAttempts = 20

	// codeInvalidToken is the Graph API code for expired or invalid access tokens.
	codeInvalidToken = 190

	maxResponseBytes = 1 << 20
)

type Client struct {
	baseURL         string
	httpClient      *http.Client
	pollInterval    time.Duration
	maxPollAttempts int
	log             *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithPolling overrides the container status poll interval and attempt ceiling.
func WithPolling(interval time.Duration, maxAttempts int) Option {
	return func(c *Client) {
		if interval > 0 {
			c.pollInterval = interval
		}
		if maxAttempts > 0 {
			c.maxPollAttempts = maxAttempts
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		pollInterval:    DefaultPollInterval,
		maxPollAttempts: DefaultMaxPollAttempts,
		log:             logging.WithComponent("meta"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) post(ctx context.Context, path string, params url.Values, out any) error {
	return c.do(ctx, http.MethodPost, path, params, out)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, params, out)
}

// do sends params in the query string, as the Graph API expects for writes too.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, out any) error {
	reqURL := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// the URL carries the access token, keep it out of the error
		return fmt.Errorf("graph %s %s: %w", method, path, unwrapURLError(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}

	if apiErr := decodeGraphError(resp.StatusCode, body); apiErr != nil {
		c.log.Warn("graph api error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.Error(apiErr))
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("error parsing response: %w", err)
	}
	return nil
}

func decodeGraphError(statusCode int, body []byte) error {
	var payload transfer.GraphErrorResponse
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != nil {
		if payload.Error.Code == codeInvalidToken {
			return &models.CredentialExpiredError{Detail: payload.Error.Message}
		}
		msg := payload.Error.Message
		if msg == "" {
			msg = payload.Error.ErrorUserMsg
		}
		return &models.ExternalAPIError{
			StatusCode: statusCode,
			Code:       payload.Error.Code,
			Subcode:    payload.Error.ErrorSubcode,
			Type:       payload.Error.Type,
			Message:    msg,
			TraceID:    payload.Error.FbtraceID,
		}
	}

	if statusCode < 200 || statusCode > 299 {
		return &models.ExternalAPIError{
			StatusCode: statusCode,
			Message:    fmt.Sprintf("unexpected status code from Graph API: %d", statusCode),
		}
	}
	return nil
}

func unwrapURLError(err error) error {
	if ue, ok := err.(*url.Error); ok {
		return ue.Err
	}
	return err
}

func requireID(id, what string) (string, error) {
	if id == "" {
		return "", &models.ExternalAPIError{Message: fmt.Sprintf("no %s id returned from Graph API", what)}
	}
	return id, nil
}
