package chat

import "strings"

// JoinRoom requests membership in roomID. The return value reports only
// whether the request was accepted for dispatch; completion is observable
// through OnStatusChanged once the server acknowledges with joined-room.
//
// A join issued before authentication completes is remembered and issued
// automatically the instant the handshake succeeds. While a join or leave is
// already in flight the new room is queued behind it; joining the current
// room is a no-op. There is never more than one active membership: switching
// rooms leaves the old room first.
func (s *Session) JoinRoom(roomID string) error {
	if strings.TrimSpace(roomID) == "" {
		return NewError(ErrorNoRoom, "room id must not be empty")
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return NewError(ErrorClosed, "session closed")
	}
	if s.connState != StateConnected || s.authState != AuthAuthenticated {
		s.pending = roomID
		s.mu.Unlock()
		return NewError(ErrorAuthRequired, "authentication required")
	}
	switch s.roomState {
	case RoomJoined:
		if s.room == roomID {
			s.mu.Unlock()
			return nil
		}
		if err := s.switchRoomLocked(roomID); err != nil {
			// the old membership is already gone locally
			s.mu.Unlock()
			s.notifyStatus()
			return err
		}
	case RoomJoining, RoomLeaving:
		s.pending = roomID
	default:
		if err := s.issueJoinLocked(roomID); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.mu.Unlock()
	s.notifyStatus()
	return nil
}

// LeaveRoom gives up membership in roomID, or the current room when roomID
// is empty. Local state clears immediately; the server is notified best
// effort with no acknowledgment awaited. Leaving with no id also drops any
// queued join.
func (s *Session) LeaveRoom(roomID string) {
	s.mu.Lock()
	if roomID == "" {
		roomID = s.room
		s.pending = ""
	} else if s.pending == roomID {
		s.pending = ""
	}
	if roomID == "" || s.roomState == RoomIdle || s.room != roomID {
		s.mu.Unlock()
		return
	}
	// the server is notified best effort; local state clears regardless
	_ = s.enqueueLocked(ClientFrame{Event: evLeaveRoom, Data: LeaveRoomPayload{RoomID: roomID}})
	s.roomState = RoomIdle
	s.room = ""
	s.mu.Unlock()

	s.logger.Debug("left room", map[string]any{"room": roomID})
	s.notifyStatus()
}

// issueJoinLocked emits the join request and enters joining. Membership is
// not reported until the server acknowledges. A join that cannot be queued
// leaves the machine idle and reports the failure.
func (s *Session) issueJoinLocked(roomID string) error {
	if err := s.enqueueLocked(ClientFrame{Event: evJoinRoom, Data: JoinRoomPayload{RoomID: roomID}}); err != nil {
		s.lastErr = err
		return err
	}
	s.roomState = RoomJoining
	s.room = roomID
	return nil
}

// switchRoomLocked fully leaves the current room before requesting the new
// one, so two rooms are never concurrently active. The leave itself is best
// effort, matching LeaveRoom.
func (s *Session) switchRoomLocked(roomID string) error {
	s.roomState = RoomLeaving
	_ = s.enqueueLocked(ClientFrame{Event: evLeaveRoom, Data: LeaveRoomPayload{RoomID: s.room}})
	if err := s.issueJoinLocked(roomID); err != nil {
		s.roomState = RoomIdle
		s.room = ""
		return err
	}
	return nil
}

// flushPendingLocked replays the most recently requested room once
// authentication completes.
func (s *Session) flushPendingLocked() error {
	if s.pending == "" || s.roomState != RoomIdle {
		return nil
	}
	roomID := s.pending
	s.pending = ""
	return s.issueJoinLocked(roomID)
}

func (s *Session) handleJoinedRoom(epoch int, roomID string) {
	s.mu.Lock()
	if s.closed || s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	if s.roomState != RoomJoining || s.room != roomID {
		// ack for a room we no longer target, e.g. left while joining
		s.mu.Unlock()
		return
	}
	s.roomState = RoomJoined
	var switchErr error
	if s.pending != "" && s.pending != roomID {
		next := s.pending
		s.pending = ""
		switchErr = s.switchRoomLocked(next)
	} else {
		s.pending = ""
	}
	s.mu.Unlock()

	s.logger.Info("joined room", map[string]any{"room": roomID})
	if switchErr != nil {
		s.dispatcher.fireError(switchErr)
	}
	s.notifyStatus()
}
