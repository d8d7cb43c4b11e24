package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAppState is a hand-driven foreground/background signal source.
type fakeAppState struct {
	mu   sync.Mutex
	subs map[int]func(AppState)
	next int
}

func newFakeAppState() *fakeAppState {
	return &fakeAppState{subs: make(map[int]func(AppState))}
}

func (f *fakeAppState) Subscribe(fn func(AppState)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

func (f *fakeAppState) emit(st AppState) {
	f.mu.Lock()
	fns := make([]func(AppState), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

func (f *fakeAppState) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func TestForegroundTriggersReconnect(t *testing.T) {
	d := &fakeDialer{}
	app := newFakeAppState()
	s := newTestSession(t, d, func(cfg *Config) {
		cfg.AppState = app
	})
	require.Equal(t, 1, app.subscribers(), "session subscribes at construction")

	app.emit(AppForeground)
	waitFor(t, func() bool { return d.dialCount() == 1 }, "connect on resume")
	waitFor(t, func() bool { return s.Status().Connected }, "connected on resume")
}

func TestForegroundWhileConnectedIsNoop(t *testing.T) {
	d := &fakeDialer{}
	app := newFakeAppState()
	s := newTestSession(t, d, func(cfg *Config) {
		cfg.AppState = app
	})
	connectAndAuth(t, s, d)

	app.emit(AppForeground)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, d.dialCount(), "healthy connection left alone")
}

func TestBackgroundLeavesTransportAlone(t *testing.T) {
	d := &fakeDialer{}
	app := newFakeAppState()
	s := newTestSession(t, d, func(cfg *Config) {
		cfg.AppState = app
	})
	connectAndAuth(t, s, d)

	app.emit(AppBackground)
	time.Sleep(20 * time.Millisecond)
	assert.True(t, s.Status().Connected, "no forced teardown on background")
}

func TestForegroundResetsRetryBudget(t *testing.T) {
	d := &fakeDialer{refuse: true}
	app := newFakeAppState()
	s := newTestSession(t, d, func(cfg *Config) {
		cfg.AppState = app
	})

	_ = s.Connect(context.Background())
	waitFor(t, func() bool { return d.dialCount() == 5 }, "budget exhausted")
	time.Sleep(20 * time.Millisecond)

	// a resume after deliberate suspend is not penalized by prior attempts
	app.emit(AppForeground)
	waitFor(t, func() bool { return d.dialCount() >= 6 }, "retrying again after resume")
}

func TestCloseUnsubscribes(t *testing.T) {
	d := &fakeDialer{}
	app := newFakeAppState()
	s := newTestSession(t, d, func(cfg *Config) {
		cfg.AppState = app
	})
	s.Close()
	assert.Equal(t, 0, app.subscribers())

	app.emit(AppForeground)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, d.dialCount(), "closed session never reconnects")
}
