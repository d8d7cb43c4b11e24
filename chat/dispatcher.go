package chat

// Dispatcher routes inbound server events to registered callbacks. Events
// are dispatched in arrival order from the single read loop; the dispatcher
// does not reorder, deduplicate, or buffer across reconnects.
type Dispatcher struct {
	onMessage    func(Message)
	onUserJoined func(UserEvent)
	onUserLeft   func(UserEvent)
	onStatus     func(Status)
	onError      func(error)
}

func (d *Dispatcher) SetOnMessage(fn func(Message)) { d.onMessage = fn }

func (d *Dispatcher) SetOnUserJoined(fn func(UserEvent)) { d.onUserJoined = fn }

func (d *Dispatcher) SetOnUserLeft(fn func(UserEvent)) { d.onUserLeft = fn }

func (d *Dispatcher) SetOnStatus(fn func(Status)) { d.onStatus = fn }

func (d *Dispatcher) SetOnError(fn func(error)) { d.onError = fn }

// Dispatch fans out message and presence frames. Session-level frames
// (authentication, room acks) are handled by the session before reaching
// here.
func (d *Dispatcher) Dispatch(frame ServerFrame) {
	switch frame.Event {
	case evNewMessage:
		if d.onMessage == nil {
			return
		}
		var msg Message
		if err := UnmarshalData(frame.Data, &msg); err != nil {
			d.fireError(WrapError(ErrorSerialization, "failed to unmarshal new-message event", err))
			return
		}
		d.onMessage(msg)
	case evUserJoined:
		if d.onUserJoined == nil {
			return
		}
		var ev UserEvent
		if err := UnmarshalData(frame.Data, &ev); err != nil {
			d.fireError(WrapError(ErrorSerialization, "failed to unmarshal user-joined event", err))
			return
		}
		d.onUserJoined(ev)
	case evUserLeft:
		if d.onUserLeft == nil {
			return
		}
		var ev UserEvent
		if err := UnmarshalData(frame.Data, &ev); err != nil {
			d.fireError(WrapError(ErrorSerialization, "failed to unmarshal user-left event", err))
			return
		}
		d.onUserLeft(ev)
	}
}

func (d *Dispatcher) fireError(err error) {
	if d.onError != nil && err != nil {
		d.onError(err)
	}
}

func (d *Dispatcher) fireStatus(st Status) {
	if d.onStatus != nil {
		d.onStatus(st)
	}
}
