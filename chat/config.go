package chat

import (
	"context"
	"time"
)

// Environment selects the chat endpoint.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// Endpoint returns the WebSocket URL for an environment.
func Endpoint(env Environment) string {
	if env == EnvProduction {
		return "wss://api.kgency.com/chat"
	}
	return "ws://localhost:5004/chat"
}

// TokenSource supplies the bearer token for the authentication handshake.
// It is consulted exactly once per handshake attempt, so a token refreshed
// out-of-band is picked up on the next reconnect. An empty token with a nil
// error means no credential is available.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to the TokenSource interface.
type TokenFunc func(ctx context.Context) (string, error)

// Token implements TokenSource.
func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// StaticToken returns a TokenSource that always yields the same token.
func StaticToken(token string) TokenSource {
	return TokenFunc(func(context.Context) (string, error) { return token, nil })
}

// Config controls how the session connects.
type Config struct {
	// URL overrides the environment-selected endpoint when non-empty.
	URL string
	Env Environment

	// Tokens supplies the handshake credential. Required for the handshake
	// to run; a nil source behaves like a missing credential.
	Tokens TokenSource

	// AppState, when set, lets the session reconnect on foreground
	// transitions. Optional.
	AppState AppStateSource

	AutoReconnect     bool
	ReconnectInterval time.Duration
	MaxReconnectTries int

	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration // 0 disables; the chat socket may sit idle
	WriteTimeout     time.Duration

	// Dialer overrides the WebSocket dialer. Tests use this to inject a
	// fake transport.
	Dialer Dialer
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Env:               EnvDevelopment,
		AutoReconnect:     true,
		ReconnectInterval: 3 * time.Second,
		MaxReconnectTries: 5,
		HandshakeTimeout:  10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

func (c Config) endpoint() string {
	if c.URL != "" {
		return c.URL
	}
	return Endpoint(c.Env)
}
