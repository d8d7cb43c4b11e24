package rest

import "time"

// Authentication types

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse contains the bearer token returned after successful
// authentication.
type TokenResponse struct {
	Token string `json:"token"`
}

// Room types

// RoomInfo is metadata about a chat room between a job seeker and a company.
type RoomInfo struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	CompanyID     string    `json:"companyId"`
	LastMessage   string    `json:"lastMessage,omitempty"`
	LastMessageAt time.Time `json:"lastMessageAt,omitempty"`
	UnreadCount   int       `json:"unreadCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Message history types

// MessageInfo is a single message in the history.
type MessageInfo struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	SenderID  string    `json:"senderId"`
	Body      string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// MessagesResponse contains a page of messages with pagination info.
type MessagesResponse struct {
	Messages []MessageInfo `json:"messages"`
	HasMore  bool          `json:"hasMore"`
}

// ErrorResponse is the API error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
