package chat

import "encoding/json"

const (
	// client -> server
	evAuthenticate = "authenticate"
	evJoinRoom     = "join-room"
	evLeaveRoom    = "leave-room"
	evSendMessage  = "send-message"

	// server -> client
	evAuthenticated = "authenticated"
	evAuthError     = "auth-error"
	evJoinedRoom    = "joined-room"
	evNewMessage    = "new-message"
	evUserJoined    = "user-joined"
	evUserLeft      = "user-left"
	evError         = "error"
)

// ClientFrame is the envelope from client to server.
type ClientFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// ServerFrame is the envelope from server to client.
type ServerFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// AuthenticatePayload carries the bearer token for the handshake.
type AuthenticatePayload struct {
	Token string `json:"token"`
}

// JoinRoomPayload requests membership in a room.
type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
}

// LeaveRoomPayload gives up membership in a room.
type LeaveRoomPayload struct {
	RoomID string `json:"roomId"`
}

// SendMessagePayload publishes a message to the joined room. ClientMsgID is
// generated locally so the server can deduplicate resubmissions.
type SendMessagePayload struct {
	RoomID      string `json:"roomId"`
	Message     string `json:"message"`
	ClientMsgID string `json:"clientMsgId,omitempty"`
}

// AuthenticatedPayload acknowledges a successful handshake.
type AuthenticatedPayload struct {
	User Identity `json:"user"`
}

// AuthErrorPayload reports a refused handshake.
type AuthErrorPayload struct {
	Message string `json:"message"`
}

// JoinedRoomPayload acknowledges room membership.
type JoinedRoomPayload struct {
	RoomID string `json:"roomId"`
}

// ErrorPayload is a generic server-reported error.
type ErrorPayload struct {
	Message string `json:"message"`
}

// UnmarshalData decodes a raw frame payload into target.
func UnmarshalData(data json.RawMessage, v any) error {
	return json.Unmarshal(data, v)
}
