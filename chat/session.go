package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hyson0807/kgency-chat-go/chat/internal"

	"github.com/coder/websocket"
)

// Transport is the minimal connection surface the session drives. The
// production implementation wraps a WebSocket; tests inject fakes.
type Transport interface {
	Read(ctx context.Context, v any) error
	Write(ctx context.Context, v any) error
	Close(reason string) error
}

// Dialer opens a Transport to the chat endpoint.
type Dialer func(ctx context.Context, url string) (Transport, error)

const writeQueueSize = 16

// Session owns the single persistent connection to the chat server: the
// transport lifecycle, the authentication handshake, room membership, and
// inbound event fan-out. Create one Session per logical user session;
// parallel instances would hold duplicate authenticated connections to the
// same room.
type Session struct {
	cfg        Config
	logger     Logger
	dispatcher Dispatcher

	mu         sync.Mutex
	epoch      int // invalidates callbacks of torn-down connections
	conn       Transport
	cancel     context.CancelFunc
	writeCh    chan ClientFrame
	retryTimer *time.Timer
	closed     bool

	connState ConnectionState
	authState AuthState
	identity  *Identity
	budget    RetryBudget
	lastErr   error

	roomState RoomState
	room      string // joined room, or target while joining
	pending   string // most recently requested room awaiting auth or an in-flight transition

	unsubApp func()
}

// NewSession constructs a session with the provided config. Use
// DefaultConfig() as a starting point and modify as needed.
func NewSession(cfg Config) *Session {
	if cfg.MaxReconnectTries <= 0 {
		cfg.MaxReconnectTries = DefaultConfig().MaxReconnectTries
	}
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = DefaultConfig().ReconnectInterval
	}
	s := &Session{
		cfg:    cfg,
		logger: noopLogger{},
		budget: RetryBudget{Max: cfg.MaxReconnectTries},
	}
	if s.cfg.Dialer == nil {
		s.cfg.Dialer = websocketDialer(cfg)
	}
	if cfg.AppState != nil {
		s.unsubApp = cfg.AppState.Subscribe(s.handleAppState)
	}
	return s
}

// websocketDialer dials the real chat endpoint over WebSocket.
func websocketDialer(cfg Config) Dialer {
	return func(ctx context.Context, url string) (Transport, error) {
		ws, _, err := websocket.Dial(ctx, url, nil)
		if err != nil {
			return nil, err
		}
		return internal.NewConn(ws, cfg.ReadTimeout, cfg.WriteTimeout), nil
	}
}

// SetLogger overrides the logger (optional).
func (s *Session) SetLogger(l Logger) {
	if l != nil {
		s.logger = l
	}
}

// OnMessage registers the callback for inbound chat messages.
func (s *Session) OnMessage(fn func(Message)) { s.dispatcher.SetOnMessage(fn) }

// OnUserJoined registers the callback for room-presence join events.
func (s *Session) OnUserJoined(fn func(UserEvent)) { s.dispatcher.SetOnUserJoined(fn) }

// OnUserLeft registers the callback for room-presence leave events.
func (s *Session) OnUserLeft(fn func(UserEvent)) { s.dispatcher.SetOnUserLeft(fn) }

// OnStatusChanged registers the callback invoked with a fresh Status
// snapshot on every relevant transition.
func (s *Session) OnStatusChanged(fn func(Status)) { s.dispatcher.SetOnStatus(fn) }

// OnError registers the callback for surfaced errors.
func (s *Session) OnError(fn func(error)) { s.dispatcher.SetOnError(fn) }

// Status returns the current aggregate status snapshot.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

// User returns the identity the server reported on the last successful
// handshake, or nil while unauthenticated.
func (s *Session) User() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

func (s *Session) statusLocked() Status {
	st := Status{
		Connected:     s.connState == StateConnected,
		Authenticated: s.authState == AuthAuthenticated,
		InRoom:        s.roomState == RoomJoined,
		LastError:     s.lastErr,
	}
	if st.InRoom {
		st.Room = s.room
	}
	return st
}

func (s *Session) notifyStatus() {
	s.mu.Lock()
	st := s.statusLocked()
	s.mu.Unlock()
	s.dispatcher.fireStatus(st)
}

// Connect establishes the transport and starts the handshake. It is
// idempotent: while a connection is in flight or established it is a no-op.
// A manual Connect resets the retry budget, so a caller can always restart
// automatic reconnection after the budget was exhausted.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return NewError(ErrorClosed, "session closed")
	}
	if s.connState != StateDisconnected {
		s.mu.Unlock()
		return nil
	}
	s.budget.Reset()
	epoch := s.epoch
	s.mu.Unlock()
	return s.dial(ctx, epoch)
}

// dial performs one connection attempt on behalf of the given epoch; a
// Disconnect (or a newer attempt) bumps the epoch and voids the caller.
// Failed attempts consume the retry budget and schedule the next automatic
// attempt while the budget allows.
func (s *Session) dial(ctx context.Context, expect int) error {
	s.mu.Lock()
	if s.closed || s.connState != StateDisconnected || s.epoch != expect {
		s.mu.Unlock()
		return nil
	}
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
	// tear down any leftover connection object before redialing
	if prev := s.conn; prev != nil {
		s.conn = nil
		_ = prev.Close("superseded")
	}
	s.epoch++
	epoch := s.epoch
	s.connState = StateConnecting
	url := s.cfg.endpoint()
	dialer := s.cfg.Dialer
	s.mu.Unlock()
	s.notifyStatus()

	dialCtx := ctx
	if s.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, s.cfg.HandshakeTimeout)
		defer cancel()
	}

	conn, err := dialer(dialCtx, url)
	if err != nil {
		return s.dialFailed(epoch, err)
	}

	s.mu.Lock()
	if s.closed || s.epoch != epoch {
		s.mu.Unlock()
		_ = conn.Close("stale dial")
		return nil
	}
	s.conn = conn
	s.connState = StateConnected
	s.authState = AuthUnauthenticated
	s.budget.Reset()
	s.lastErr = nil
	writeCh := make(chan ClientFrame, writeQueueSize)
	s.writeCh = writeCh
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	s.logger.Info("connected", map[string]any{"url": url})
	s.notifyStatus()

	g, loopCtx := errgroup.WithContext(runCtx)
	g.Go(func() error { return s.readLoop(loopCtx, epoch, conn) })
	g.Go(func() error { return s.writeLoop(loopCtx, conn, writeCh) })
	go func() {
		err := g.Wait()
		s.handleDrop(epoch, err)
	}()

	go s.authenticate(runCtx, epoch)
	return nil
}

func (s *Session) dialFailed(epoch int, cause error) error {
	s.mu.Lock()
	if s.closed || s.epoch != epoch {
		s.mu.Unlock()
		return WrapError(ErrorConnection, "connection attempt aborted", cause)
	}
	s.connState = StateDisconnected
	s.budget.Fail()
	s.mu.Unlock()

	s.logger.Warn("connection attempt failed", map[string]any{"error": cause.Error()})
	s.maybeRetry()
	s.notifyStatus()
	return WrapError(ErrorConnection, "connection failed", cause)
}

// maybeRetry schedules the next automatic attempt, or surfaces a terminal
// connectivity error once the budget is exhausted.
func (s *Session) maybeRetry() {
	s.mu.Lock()
	if s.closed || s.connState != StateDisconnected {
		s.mu.Unlock()
		return
	}
	if !s.cfg.AutoReconnect {
		s.mu.Unlock()
		return
	}
	if s.budget.ShouldRetry() {
		attempt := s.budget.Attempts
		epoch := s.epoch
		s.retryTimer = time.AfterFunc(s.cfg.ReconnectInterval, func() {
			_ = s.dial(context.Background(), epoch)
		})
		s.mu.Unlock()
		s.logger.Info("reconnect scheduled", map[string]any{"attempt": attempt})
		return
	}
	err := NewError(ErrorUnreachable, "chat server unreachable")
	s.lastErr = err
	s.mu.Unlock()
	s.dispatcher.fireError(err)
}

// Disconnect tears the connection down explicitly. It always succeeds and
// resets all dependent state; stale events from the torn-down connection
// are discarded. The session stays usable: Connect starts over.
func (s *Session) Disconnect() {
	s.mu.Lock()
	s.epoch++
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
	conn := s.conn
	cancel := s.cancel
	s.conn = nil
	s.cancel = nil
	s.writeCh = nil
	s.resetLocked()
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close("client disconnect")
	}
	s.notifyStatus()
}

// Close disconnects and releases the lifecycle subscription. The session
// cannot be reused afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsub := s.unsubApp
	s.unsubApp = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	s.Disconnect()
}

// resetLocked returns all connection-dependent state to initial values.
func (s *Session) resetLocked() {
	s.connState = StateDisconnected
	s.authState = AuthUnauthenticated
	s.identity = nil
	s.roomState = RoomIdle
	s.room = ""
	s.pending = ""
	s.budget.Reset()
	s.lastErr = nil
}

func (s *Session) readLoop(ctx context.Context, epoch int, conn Transport) error {
	for {
		var frame ServerFrame
		if err := conn.Read(ctx, &frame); err != nil {
			return err
		}
		s.handleFrame(epoch, frame)
	}
}

func (s *Session) writeLoop(ctx context.Context, conn Transport, ch <-chan ClientFrame) error {
	for {
		select {
		case frame := <-ch:
			if err := conn.Write(ctx, frame); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// handleDrop runs when the read/write loops of a connection exit. A drop
// belonging to a torn-down connection is ignored.
func (s *Session) handleDrop(epoch int, cause error) {
	s.mu.Lock()
	if s.closed || s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	conn := s.conn
	cancel := s.cancel
	s.conn = nil
	s.cancel = nil
	s.writeCh = nil
	// auth and room membership do not survive the transport
	s.connState = StateDisconnected
	s.authState = AuthUnauthenticated
	s.identity = nil
	s.roomState = RoomIdle
	s.room = ""
	s.pending = ""
	s.budget.Fail()
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close("connection dropped")
	}
	if cause != nil && !isExpectedDisconnect(cause) {
		s.logger.Warn("connection dropped", map[string]any{"error": cause.Error()})
	}
	s.maybeRetry()
	s.notifyStatus()
}

// authenticate runs the handshake for one connected transition. The
// credential is fetched fresh on every attempt; a missing credential
// short-circuits to rejected without a network round-trip.
func (s *Session) authenticate(ctx context.Context, epoch int) {
	tokens := s.cfg.Tokens

	var token string
	var err error
	if tokens != nil {
		fetchCtx := ctx
		if s.cfg.HandshakeTimeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(ctx, s.cfg.HandshakeTimeout)
			defer cancel()
		}
		token, err = tokens.Token(fetchCtx)
	}

	s.mu.Lock()
	if s.closed || s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	if err != nil || token == "" {
		s.authState = AuthRejected
		authErr := NewError(ErrorMissingCredential, "missing credential")
		if err != nil {
			authErr = WrapError(ErrorMissingCredential, "missing credential", err)
		}
		s.lastErr = authErr
		s.mu.Unlock()
		s.dispatcher.fireError(authErr)
		s.notifyStatus()
		return
	}
	s.authState = AuthAuthenticating
	if qerr := s.enqueueLocked(ClientFrame{Event: evAuthenticate, Data: AuthenticatePayload{Token: token}}); qerr != nil {
		s.authState = AuthUnauthenticated
		s.lastErr = qerr
		s.mu.Unlock()
		s.logger.Warn("handshake not submitted", map[string]any{"error": qerr.Error()})
		s.dispatcher.fireError(qerr)
		s.notifyStatus()
		return
	}
	s.mu.Unlock()
	s.notifyStatus()
}

// handleFrame serializes all inbound transitions through the read loop of
// the one live connection.
func (s *Session) handleFrame(epoch int, frame ServerFrame) {
	s.mu.Lock()
	if s.closed || s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	switch frame.Event {
	case evAuthenticated:
		var p AuthenticatedPayload
		if err := UnmarshalData(frame.Data, &p); err != nil {
			s.dispatcher.fireError(WrapError(ErrorSerialization, "failed to unmarshal authenticated event", err))
			return
		}
		s.handleAuthenticated(epoch, p.User)
	case evAuthError:
		var p AuthErrorPayload
		if err := UnmarshalData(frame.Data, &p); err != nil {
			s.dispatcher.fireError(WrapError(ErrorSerialization, "failed to unmarshal auth-error event", err))
			return
		}
		s.handleAuthError(epoch, p.Message)
	case evJoinedRoom:
		var p JoinedRoomPayload
		if err := UnmarshalData(frame.Data, &p); err != nil {
			s.dispatcher.fireError(WrapError(ErrorSerialization, "failed to unmarshal joined-room event", err))
			return
		}
		s.handleJoinedRoom(epoch, p.RoomID)
	case evError:
		var p ErrorPayload
		if err := UnmarshalData(frame.Data, &p); err != nil {
			s.dispatcher.fireError(WrapError(ErrorSerialization, "failed to unmarshal error event", err))
			return
		}
		s.handleServerError(epoch, p.Message)
	default:
		s.dispatcher.Dispatch(frame)
	}
}

func (s *Session) handleAuthenticated(epoch int, user Identity) {
	s.mu.Lock()
	if s.closed || s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	s.authState = AuthAuthenticated
	s.identity = &user
	s.lastErr = nil
	flushErr := s.flushPendingLocked()
	s.mu.Unlock()

	s.logger.Info("authenticated", map[string]any{"user": user.ID})
	if flushErr != nil {
		s.dispatcher.fireError(flushErr)
	}
	s.notifyStatus()
}

// handleAuthError surfaces the server reason verbatim. The handshake is not
// retried; the caller must reconnect, typically after refreshing the
// credential.
func (s *Session) handleAuthError(epoch int, reason string) {
	s.mu.Lock()
	if s.closed || s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	s.authState = AuthRejected
	err := NewError(ErrorAuthRejected, reason)
	s.lastErr = err
	s.mu.Unlock()

	s.logger.Warn("authentication rejected", map[string]any{"reason": reason})
	s.dispatcher.fireError(err)
	s.notifyStatus()
}

// handleServerError passes a server-reported error through unchanged; the
// client has no authority to reinterpret server semantics.
func (s *Session) handleServerError(epoch int, message string) {
	s.mu.Lock()
	if s.closed || s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	err := NewError(ErrorRoom, message)
	s.lastErr = err
	s.mu.Unlock()

	s.dispatcher.fireError(err)
	s.notifyStatus()
}

// SendMessage publishes a message to the currently joined room. Local
// preconditions are checked in order and fail fast without a network call;
// delivery confirmation beyond dispatch is the server's concern.
func (s *Session) SendMessage(ctx context.Context, body string) error {
	s.mu.Lock()
	var err error
	switch {
	case s.connState != StateConnected:
		err = NewError(ErrorNotConnected, "server connection unavailable")
	case s.authState != AuthAuthenticated:
		err = NewError(ErrorAuthRequired, "authentication required")
	case s.roomState != RoomJoined:
		err = NewError(ErrorNoRoom, "must join a room first")
	case strings.TrimSpace(body) == "":
		err = NewError(ErrorEmptyMessage, "message must not be empty")
	}
	if err != nil {
		s.mu.Unlock()
		return err
	}
	frame := ClientFrame{Event: evSendMessage, Data: SendMessagePayload{
		RoomID:      s.room,
		Message:     body,
		ClientMsgID: uuid.NewString(),
	}}
	ch := s.writeCh
	s.mu.Unlock()

	select {
	case ch <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// enqueueLocked queues a frame for the write loop without blocking. A full
// queue is reported rather than silently dropped, since a lost control frame
// would park the state machine in a transitional state. Callers hold s.mu.
func (s *Session) enqueueLocked(frame ClientFrame) error {
	if s.writeCh == nil {
		return NewError(ErrorNotConnected, "server connection unavailable")
	}
	select {
	case s.writeCh <- frame:
		return nil
	default:
		s.logger.Warn("write queue full", map[string]any{"event": frame.Event})
		return NewError(ErrorConnection, "write queue full")
	}
}

func isExpectedDisconnect(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	default:
		return false
	}
}
