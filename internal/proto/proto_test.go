package proto

import (
	"testing"

	"github.com/google/uuid"
	"github.com/pixil98/go-testutil"
)

func TestPacketRoundTrip(t *testing.T) {
	packets := map[string]Packet{
		"game info": GameInfo{InitialPoints: 100, StatLimit: 100, Description: "welcome"},
		"room info": RoomInfo{Number: 2, Name: "Cellar", Description: "Damp.", Adjacent: []int{1, 3}},
		"character": Character{Name: "Ann", Alive: true, Started: true, Attack: 50, Health: 100, Room: 1},
		"accept":    Accept{Action: "character"},
		"message":   Message{Sender: "Ann", Recipient: "Bob", Content: "hello"},
		"error":     Error{Code: ErrBadRoom, Message: "Not an adjacent room."},
	}

	for name, p := range packets {
		t.Run(name, func(t *testing.T) {
			data, err := MarshalPacket(p)
			if err != nil {
				t.Fatalf("marshalling: %v", err)
			}
			got, err := UnmarshalPacket(data)
			if err != nil {
				t.Fatalf("unmarshalling: %v", err)
			}
			testutil.AssertEqual(t, "kind", got.Kind(), p.Kind())
		})
	}
}

func TestUnmarshalPacketErrors(t *testing.T) {
	_, err := UnmarshalPacket([]byte(`{"kind":"teleport"}`))
	testutil.AssertErrorContains(t, err, "unknown packet kind")

	_, err = UnmarshalPacket([]byte(`{"kind":"error"}`))
	testutil.AssertErrorContains(t, err, "missing its body")
}

func TestEventValidate(t *testing.T) {
	id := uuid.New()

	tests := map[string]struct {
		event  Event
		expErr string
	}{
		"fight":       {event: Event{Kind: EventFight, ClientID: id}},
		"change room": {event: Event{Kind: EventChangeRoom, ClientID: id, RoomNumber: 2}},
		"character":   {event: Event{Kind: EventCharacter, ClientID: id, Name: "Ann"}},
		"missing client id": {
			event:  Event{Kind: EventFight},
			expErr: "client id is required",
		},
		"loot without target": {
			event:  Event{Kind: EventLoot, ClientID: id},
			expErr: "target is required",
		},
		"bad room number": {
			event:  Event{Kind: EventChangeRoom, ClientID: id, RoomNumber: 0},
			expErr: "room number must be positive",
		},
		"unknown kind": {
			event:  Event{Kind: "dance", ClientID: id},
			expErr: "unknown event kind",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.event.Validate()
			if tt.expErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			testutil.AssertErrorContains(t, err, tt.expErr)
		})
	}
}

func TestEventRoundTrip(t *testing.T) {
	e := &Event{Kind: EventMessage, ClientID: uuid.New(), Target: "Bob", Content: "hi"}

	data, err := MarshalEvent(e)
	if err != nil {
		t.Fatalf("marshalling: %v", err)
	}
	got, err := UnmarshalEvent(data)
	if err != nil {
		t.Fatalf("unmarshalling: %v", err)
	}

	testutil.AssertEqual(t, "kind", got.Kind, e.Kind)
	testutil.AssertEqual(t, "client", got.ClientID, e.ClientID)
	testutil.AssertEqual(t, "target", got.Target, "Bob")
}
