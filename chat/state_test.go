package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetryBudget(t *testing.T) {
	b := RetryBudget{Max: 5}
	assert.True(t, b.ShouldRetry())
	assert.False(t, b.Exhausted())

	for i := 0; i < 4; i++ {
		b.Fail()
	}
	assert.True(t, b.ShouldRetry(), "one attempt left")

	b.Fail()
	assert.False(t, b.ShouldRetry())
	assert.True(t, b.Exhausted())

	b.Reset()
	assert.True(t, b.ShouldRetry())
	assert.Equal(t, 0, b.Attempts)
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "connected", StateConnected.String())

	assert.Equal(t, "unauthenticated", AuthUnauthenticated.String())
	assert.Equal(t, "authenticating", AuthAuthenticating.String())
	assert.Equal(t, "authenticated", AuthAuthenticated.String())
	assert.Equal(t, "rejected", AuthRejected.String())

	assert.Equal(t, "idle", RoomIdle.String())
	assert.Equal(t, "joining", RoomJoining.String())
	assert.Equal(t, "joined", RoomJoined.String())
	assert.Equal(t, "leaving", RoomLeaving.String())
}
