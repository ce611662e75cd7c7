package meta

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/maheshrc27/contentflow/internal/transfer"
)

type Token struct {
	AccessToken string
	// nil when the platform reports no expiry (page tokens)
	ExpiresAt *time.Time
}

// ExchangeToken swaps a long-lived token for a renewed one.
func (c *Client) ExchangeToken(ctx context.Context, appID, appSecret, token string) (*Token, error) {
	params := url.Values{}
	params.Set("grant_type", "fb_exchange_token")
	params.Set("client_id", appID)
	params.Set("client_secret", appSecret)
	params.Set("fb_exchange_token", token)

	var result transfer.TokenExchangeResponse
	if err := c.get(ctx, "oauth/access_token", params, &result); err != nil {
		return nil, err
	}
	if result.AccessToken == "" {
		return nil, errors.New("token exchange returned no access token")
	}

	t := &Token{AccessToken: result.AccessToken}
	if result.ExpiresIn > 0 {
		exp := time.Now().Add(time.Duration(result.ExpiresIn) * time.Second)
		t.ExpiresAt = &exp
	}
	return t, nil
}
