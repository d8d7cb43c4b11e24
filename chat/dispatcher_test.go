package chat

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDispatcherMessage(t *testing.T) {
	var got Message
	var errCalled bool
	var d Dispatcher
	d.SetOnMessage(func(m Message) { got = m })
	d.SetOnError(func(err error) { errCalled = true; _ = err })

	raw, _ := json.Marshal(Message{ID: "m-1", RoomID: "room-1", SenderID: "u-1", Body: "hi"})
	d.Dispatch(ServerFrame{Event: evNewMessage, Data: raw})

	if got.ID != "m-1" || got.RoomID != "room-1" || got.Body != "hi" {
		t.Fatalf("unexpected message: %+v", got)
	}
	if errCalled {
		t.Fatalf("unexpected error callback")
	}
}

func TestDispatcherMalformedPayload(t *testing.T) {
	var errGot error
	var d Dispatcher
	d.SetOnMessage(func(Message) { t.Fatal("message callback must not fire") })
	d.SetOnError(func(err error) { errGot = err })

	d.Dispatch(ServerFrame{Event: evNewMessage, Data: json.RawMessage(`"not an object"`)})
	if errGot == nil {
		t.Fatalf("expected serialization error")
	}
	if !errors.Is(errGot, NewError(ErrorSerialization, "")) {
		t.Fatalf("unexpected error: %v", errGot)
	}
}

func TestDispatcherIgnoresUnknownEvent(t *testing.T) {
	var d Dispatcher
	d.SetOnError(func(err error) { t.Fatalf("unexpected error: %v", err) })
	d.Dispatch(ServerFrame{Event: "typing-indicator", Data: json.RawMessage(`{}`)})
}
