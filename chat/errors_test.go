package chat

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatErrorMatching(t *testing.T) {
	base := NewError(ErrorAuthRejected, "token expired")
	wrapped := fmt.Errorf("handshake: %w", base)

	assert.ErrorIs(t, wrapped, NewError(ErrorAuthRejected, "different message"))
	assert.NotErrorIs(t, wrapped, NewError(ErrorRoom, ""))

	var ce *ChatError
	assert.ErrorAs(t, wrapped, &ce)
	assert.Equal(t, "token expired", ce.Message)
}

func TestChatErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := WrapError(ErrorConnection, "connection failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection_error")
	assert.Contains(t, err.Error(), "refused")
}

func TestErrorTaxonomy(t *testing.T) {
	assert.True(t, IsConnectivityError(NewError(ErrorConnection, "")))
	assert.True(t, IsConnectivityError(NewError(ErrorUnreachable, "")))
	assert.True(t, IsAuthError(NewError(ErrorMissingCredential, "")))
	assert.True(t, IsAuthError(NewError(ErrorAuthRejected, "")))
	assert.True(t, IsRoomError(NewError(ErrorRoom, "")))
	assert.True(t, IsValidationError(NewError(ErrorEmptyMessage, "")))
	assert.True(t, IsValidationError(NewError(ErrorNoRoom, "")))

	assert.False(t, IsConnectivityError(NewError(ErrorAuthRejected, "")))
	assert.False(t, IsAuthError(errors.New("plain")))
	assert.False(t, IsValidationError(nil))
}
