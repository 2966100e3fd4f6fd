// Package proto defines the typed boundary shared with the external
// wire-protocol collaborator: the outbound packets the world core
// enqueues and the decoded inbound events it handles. Encoding to and
// from the wire format lives outside this repository; these shapes only
// need to survive a JSON trip across the message bus.
package proto

import (
	"encoding/json"
	"fmt"
)

// PacketKind discriminates the outbound packet envelope.
type PacketKind string

const (
	KindGameInfo  PacketKind = "game_info"
	KindRoomInfo  PacketKind = "room_info"
	KindCharacter PacketKind = "character"
	KindAccept    PacketKind = "accept"
	KindMessage   PacketKind = "message"
	KindError     PacketKind = "error"
)

// Packet is any outbound packet the core can enqueue to a client.
type Packet interface {
	Kind() PacketKind
}

// GameInfo announces the server's character-creation rules to a fresh
// connection.
type GameInfo struct {
	InitialPoints int    `json:"initial_points"`
	StatLimit     int    `json:"stat_limit"`
	Description   string `json:"description"`
}

func (GameInfo) Kind() PacketKind { return KindGameInfo }

// RoomInfo describes a room to a client that entered or observed it.
type RoomInfo struct {
	Number      int    `json:"number"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Adjacent    []int  `json:"adjacent"`
}

func (RoomInfo) Kind() PacketKind { return KindRoomInfo }

// Character is the resync packet for any entity, player or monster.
type Character struct {
	Name        string `json:"name"`
	Alive       bool   `json:"alive"`
	Monster     bool   `json:"monster"`
	Started     bool   `json:"started"`
	Attack      int    `json:"attack"`
	Defense     int    `json:"defense"`
	Regen       int    `json:"regen"`
	Health      int    `json:"health"`
	Gold        int    `json:"gold"`
	Room        int    `json:"room"`
	Description string `json:"description"`
}

func (Character) Kind() PacketKind { return KindCharacter }

// Accept acknowledges a successful client action.
type Accept struct {
	Action string `json:"action"`
}

func (Accept) Kind() PacketKind { return KindAccept }

// Message carries chat between named characters. System narration uses
// the reserved sender name.
type Message struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Content   string `json:"content"`
}

func (Message) Kind() PacketKind { return KindMessage }

// SystemSender is the sender name on server-generated narration.
const SystemSender = "System"

// ErrorCode classifies user-facing protocol errors.
type ErrorCode string

const (
	ErrNotReady ErrorCode = "not_ready"
	ErrBadRoom  ErrorCode = "bad_room"
	ErrNoTarget ErrorCode = "no_target"
	ErrStat     ErrorCode = "stat_error"
	ErrOther    ErrorCode = "other"
)

// Error reports a recoverable user error back to the acting client. It
// never terminates the session.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (Error) Kind() PacketKind { return KindError }

// envelope is the JSON wrapper carrying exactly one packet.
type envelope struct {
	Kind      PacketKind `json:"kind"`
	GameInfo  *GameInfo  `json:"game_info,omitempty"`
	RoomInfo  *RoomInfo  `json:"room_info,omitempty"`
	Character *Character `json:"character,omitempty"`
	Accept    *Accept    `json:"accept,omitempty"`
	Message   *Message   `json:"message,omitempty"`
	Error     *Error     `json:"error,omitempty"`
}

// MarshalPacket wraps the packet in its envelope and encodes it.
func MarshalPacket(p Packet) ([]byte, error) {
	env := envelope{Kind: p.Kind()}

	switch v := p.(type) {
	case GameInfo:
		env.GameInfo = &v
	case RoomInfo:
		env.RoomInfo = &v
	case Character:
		env.Character = &v
	case Accept:
		env.Accept = &v
	case Message:
		env.Message = &v
	case Error:
		env.Error = &v
	default:
		return nil, fmt.Errorf("unsupported packet type %T", p)
	}

	return json.Marshal(env)
}

// UnmarshalPacket decodes an envelope back into its packet.
func UnmarshalPacket(data []byte) (Packet, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshalling packet envelope: %w", err)
	}

	switch env.Kind {
	case KindGameInfo:
		if env.GameInfo != nil {
			return *env.GameInfo, nil
		}
	case KindRoomInfo:
		if env.RoomInfo != nil {
			return *env.RoomInfo, nil
		}
	case KindCharacter:
		if env.Character != nil {
			return *env.Character, nil
		}
	case KindAccept:
		if env.Accept != nil {
			return *env.Accept, nil
		}
	case KindMessage:
		if env.Message != nil {
			return *env.Message, nil
		}
	case KindError:
		if env.Error != nil {
			return *env.Error, nil
		}
	default:
		return nil, fmt.Errorf("unknown packet kind %q", env.Kind)
	}

	return nil, fmt.Errorf("packet envelope %q missing its body", env.Kind)
}
