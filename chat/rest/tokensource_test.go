package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "u-1", "exp": time.Now().Add(expiresIn).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func loginCounter(t *testing.T, token func() string) (*Client, *atomic.Int64) {
	t.Helper()
	var logins atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logins.Add(1)
		_ = json.NewEncoder(w).Encode(TokenResponse{Token: token()})
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL), &logins
}

func TestTokenSourceCaches(t *testing.T) {
	valid := signedToken(t, time.Hour)
	client, logins := loginCounter(t, func() string { return valid })

	ts := NewTokenSource(client, LoginRequest{Email: "a", Password: "b"})
	for i := 0; i < 3; i++ {
		tok, err := ts.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, valid, tok)
	}
	assert.Equal(t, int64(1), logins.Load(), "valid token reused across handshakes")
}

func TestTokenSourceRefreshesExpired(t *testing.T) {
	client, logins := loginCounter(t, func() string { return signedToken(t, time.Second) })

	ts := NewTokenSource(client, LoginRequest{Email: "a", Password: "b"})
	_, err := ts.Token(context.Background())
	require.NoError(t, err)

	// within the refresh leeway, so the next handshake logs in again
	_, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), logins.Load())
}

func TestTokenSourceInvalidate(t *testing.T) {
	valid := signedToken(t, time.Hour)
	client, logins := loginCounter(t, func() string { return valid })

	ts := NewTokenSource(client, LoginRequest{Email: "a", Password: "b"})
	_, err := ts.Token(context.Background())
	require.NoError(t, err)

	ts.Invalidate()
	_, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), logins.Load())
}

func TestTokenSourceOpaqueToken(t *testing.T) {
	client, logins := loginCounter(t, func() string { return "not-a-jwt" })

	ts := NewTokenSource(client, LoginRequest{Email: "a", Password: "b"})
	tok, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "not-a-jwt", tok)

	// no expiry claim means the token is cached until invalidated
	_, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), logins.Load())
}
