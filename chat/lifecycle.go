package chat

import "context"

// AppState is an OS-level application lifecycle state.
type AppState int

const (
	// AppBackground means the application left the foreground.
	AppBackground AppState = iota

	// AppForeground means the application became active.
	AppForeground
)

// String returns the string representation of an AppState.
func (s AppState) String() string {
	if s == AppForeground {
		return "foreground"
	}
	return "background"
}

// AppStateSource delivers foreground/background transitions. The session
// subscribes once at construction and calls the returned cancel func on
// Close.
type AppStateSource interface {
	Subscribe(fn func(AppState)) (cancel func())
}

// handleAppState bridges lifecycle transitions to the connection state
// machine. A resume while the transport is down triggers a reconnect with a
// fresh retry budget; backgrounding leaves the transport to degrade
// naturally so short background periods keep a healthy connection.
func (s *Session) handleAppState(st AppState) {
	if st != AppForeground {
		return
	}
	s.mu.Lock()
	if s.closed || s.connState != StateDisconnected {
		s.mu.Unlock()
		return
	}
	s.budget.Reset()
	s.mu.Unlock()

	s.logger.Info("reconnecting on foreground", nil)
	go func() { _ = s.Connect(context.Background()) }()
}
