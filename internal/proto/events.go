package proto

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/pixil98/go-errors"
)

// EventKind discriminates the inbound decoded-event envelope.
type EventKind string

const (
	EventConnect    EventKind = "connect"
	EventDisconnect EventKind = "disconnect"
	EventMessage    EventKind = "message"
	EventChangeRoom EventKind = "change_room"
	EventFight      EventKind = "fight"
	EventPvpFight   EventKind = "pvp_fight"
	EventLoot       EventKind = "loot"
	EventStart      EventKind = "start"
	EventCharacter  EventKind = "character"
	EventLeave      EventKind = "leave"
)

// Event is one decoded client action as delivered by the protocol layer.
// ClientID identifies the originating connection; the payload fields are
// populated according to Kind.
type Event struct {
	Kind     EventKind `json:"kind"`
	ClientID uuid.UUID `json:"client_id"`

	// Message
	Target  string `json:"target,omitempty"`
	Content string `json:"content,omitempty"`

	// ChangeRoom
	RoomNumber int `json:"room_number,omitempty"`

	// Character
	Name        string `json:"name,omitempty"`
	Attack      int    `json:"attack,omitempty"`
	Defense     int    `json:"defense,omitempty"`
	Regen       int    `json:"regen,omitempty"`
	Description string `json:"description,omitempty"`
}

// Validate checks that the event is routable before it is dispatched.
func (e *Event) Validate() error {
	el := errors.NewErrorList()

	if e.ClientID == uuid.Nil {
		el.Add(fmt.Errorf("event client id is required"))
	}

	switch e.Kind {
	case EventConnect, EventDisconnect, EventFight, EventStart, EventLeave:
	case EventMessage:
		if e.Target == "" {
			el.Add(fmt.Errorf("message event: target is required"))
		}
	case EventPvpFight, EventLoot:
		if e.Target == "" {
			el.Add(fmt.Errorf("%s event: target is required", e.Kind))
		}
	case EventChangeRoom:
		if e.RoomNumber <= 0 {
			el.Add(fmt.Errorf("change_room event: room number must be positive"))
		}
	case EventCharacter:
		if e.Name == "" {
			el.Add(fmt.Errorf("character event: name is required"))
		}
	default:
		el.Add(fmt.Errorf("unknown event kind %q", e.Kind))
	}

	return el.Err()
}

// MarshalEvent encodes an event for the bus.
func MarshalEvent(e *Event) ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalEvent decodes and validates an event from the bus.
func UnmarshalEvent(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshalling event: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("validating event: %w", err)
	}
	return &e, nil
}
