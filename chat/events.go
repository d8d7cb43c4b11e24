package chat

import "time"

// Identity describes the authenticated user as reported by the server.
type Identity struct {
	ID       string `json:"id"`
	UserType string `json:"userType"`
}

// Message is a chat message created by the server and observed by this
// client. Inbound messages are immutable once received; read receipts are a
// higher-level concern.
type Message struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	SenderID  string    `json:"senderId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	IsRead    bool      `json:"isRead"`
}

// UserEvent is emitted when a user joins or leaves the room.
type UserEvent struct {
	UserID   string `json:"userId"`
	UserType string `json:"userType"`
}
