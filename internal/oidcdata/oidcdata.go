// Package oidcdata decodes the user claims token the load balancer forwards in
// the x-amzn-oidc-data header.
package oidcdata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Header names set by the load balancer after a successful authentication.
const (
	HeaderData        = "x-amzn-oidc-data"
	HeaderAccessToken = "x-amzn-oidc-accesstoken"
	HeaderIdentity    = "x-amzn-oidc-identity"
)

var (
	// ErrMissingToken is returned for an empty header value.
	ErrMissingToken = errors.New("oidcdata: missing token")
	// ErrMalformedToken is returned when the token cannot be parsed or lacks
	// the username or exp claims.
	ErrMalformedToken = errors.New("oidcdata: malformed token")
)

// Claims is the decoded payload of the header.
type Claims struct {
	Username string
	Expiry   time.Time
	Raw      jwt.MapClaims
}

// Decode parses the token without verifying its signature. The load balancer
// pads its base64 segments, so padding is accepted.
func Decode(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	parser := jwt.NewParser(jwt.WithPaddingAllowed(), jwt.WithoutClaimsValidation())
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	username, ok := claims["username"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: username claim missing", ErrMalformedToken)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, fmt.Errorf("%w: exp claim missing", ErrMalformedToken)
	}
	return &Claims{Username: username, Expiry: exp.UTC(), Raw: claims}, nil
}

// ValidUntil formats the expiry as an RFC 3339 UTC timestamp.
func (c *Claims) ValidUntil() string {
	return c.Expiry.Format(time.RFC3339)
}

// Pretty renders every claim as JSON indented by four spaces.
func (c *Claims) Pretty() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(c.Raw); err != nil {
		return "", fmt.Errorf("oidcdata: render claims: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
