// Package userinfo fetches the authenticated user's profile from the identity
// provider's userinfo endpoint.
package userinfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

var (
	// ErrNoEndpoint means the client was built without a userinfo URL.
	ErrNoEndpoint = errors.New("userinfo: endpoint not configured")
	// ErrMissingToken means no access token was supplied.
	ErrMissingToken = errors.New("userinfo: missing access token")
	// ErrUpstream wraps transport failures and non-200 answers.
	ErrUpstream = errors.New("userinfo: upstream request failed")
)

// Client queries a fixed userinfo endpoint.
type Client struct {
	provider *oidc.Provider
}

// New returns a Client for endpoint. An empty endpoint yields a Client whose
// Fetch always fails with ErrNoEndpoint.
func New(ctx context.Context, endpoint string) *Client {
	if endpoint == "" {
		return &Client{}
	}
	cfg := &oidc.ProviderConfig{UserInfoURL: endpoint}
	return &Client{provider: cfg.NewProvider(ctx)}
}

// Fetch returns the raw JSON document for accessToken.
func (c *Client) Fetch(ctx context.Context, accessToken string) (json.RawMessage, error) {
	if c == nil || c.provider == nil {
		return nil, ErrNoEndpoint
	}
	if accessToken == "" {
		return nil, ErrMissingToken
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	info, err := c.provider.UserInfo(ctx, ts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	var raw json.RawMessage
	if err := info.Claims(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return raw, nil
}
