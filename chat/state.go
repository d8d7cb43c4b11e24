package chat

// ConnectionState represents the current state of the transport connection.
type ConnectionState int

const (
	// StateDisconnected means no connection is established or in flight.
	StateDisconnected ConnectionState = iota

	// StateConnecting means a connection attempt is in progress.
	StateConnecting

	// StateConnected means the transport is established.
	StateConnected
)

// String returns the string representation of a ConnectionState.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// AuthState represents the outcome of the authentication handshake on the
// current connection. It is created fresh on every connected transition and
// never survives a transport drop.
type AuthState int

const (
	// AuthUnauthenticated means no handshake has completed on this connection.
	AuthUnauthenticated AuthState = iota

	// AuthAuthenticating means the handshake is in flight.
	AuthAuthenticating

	// AuthAuthenticated means the server accepted the credential.
	AuthAuthenticated

	// AuthRejected means the credential was missing or refused; the caller
	// must reconnect to retry the handshake.
	AuthRejected
)

// String returns the string representation of an AuthState.
func (s AuthState) String() string {
	switch s {
	case AuthUnauthenticated:
		return "unauthenticated"
	case AuthAuthenticating:
		return "authenticating"
	case AuthAuthenticated:
		return "authenticated"
	case AuthRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// RoomState represents the room-membership state machine. At most one room
// is active per connection.
type RoomState int

const (
	// RoomIdle means no membership exists.
	RoomIdle RoomState = iota

	// RoomJoining means a join request awaits the server acknowledgment.
	RoomJoining

	// RoomJoined means the server acknowledged the membership.
	RoomJoined

	// RoomLeaving means a leave is being issued.
	RoomLeaving
)

// String returns the string representation of a RoomState.
func (s RoomState) String() string {
	switch s {
	case RoomIdle:
		return "idle"
	case RoomJoining:
		return "joining"
	case RoomJoined:
		return "joined"
	case RoomLeaving:
		return "leaving"
	default:
		return "unknown"
	}
}

// RetryBudget bounds automatic reconnection. Attempts increments on every
// failed connection attempt and resets on every successful one; once
// exhausted the session stops retrying until the caller reconnects manually.
type RetryBudget struct {
	Attempts int
	Max      int
}

// Reset clears the attempt counter.
func (b *RetryBudget) Reset() { b.Attempts = 0 }

// Fail records a failed connection attempt.
func (b *RetryBudget) Fail() { b.Attempts++ }

// ShouldRetry reports whether another automatic attempt is allowed.
func (b RetryBudget) ShouldRetry() bool { return b.Attempts < b.Max }

// Exhausted reports whether the budget is used up.
func (b RetryBudget) Exhausted() bool { return b.Attempts >= b.Max }

// Status is the aggregate surface UI layers observe instead of reaching into
// individual components. It is recomputed on every relevant transition.
type Status struct {
	Connected     bool
	Authenticated bool
	InRoom        bool
	Room          string // set only while InRoom
	LastError     error
}
