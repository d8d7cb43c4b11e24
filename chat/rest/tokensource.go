package rest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource supplies handshake credentials backed by the login endpoint.
// The token is cached across handshakes and refreshed with a fresh login
// once its JWT expiry approaches, so an expired credential never reaches
// the socket.
type TokenSource struct {
	client *Client
	creds  LoginRequest
	leeway time.Duration

	mu      sync.Mutex
	token   string
	expires time.Time // zero when the token carries no exp claim
}

// NewTokenSource creates a TokenSource that logs in with creds on demand.
func NewTokenSource(client *Client, creds LoginRequest) *TokenSource {
	return &TokenSource{
		client: client,
		creds:  creds,
		leeway: 30 * time.Second,
	}
}

// Token returns a valid bearer token, logging in again when the cached one
// is missing or about to expire.
func (t *TokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && (t.expires.IsZero() || time.Now().Add(t.leeway).Before(t.expires)) {
		return t.token, nil
	}

	resp, err := t.client.Login(ctx, t.creds)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	t.token = resp.Token
	t.expires = tokenExpiry(resp.Token)
	t.client.SetToken(resp.Token)
	return t.token, nil
}

// Invalidate drops the cached token so the next handshake logs in again.
func (t *TokenSource) Invalidate() {
	t.mu.Lock()
	t.token = ""
	t.expires = time.Time{}
	t.mu.Unlock()
}

// tokenExpiry reads the exp claim without verifying the signature; the
// server is the authority on validity, the client only decides when a
// refresh is worthwhile.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
