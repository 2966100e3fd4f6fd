// Package server holds the authoritative world state and translates
// decoded protocol events into world mutations and outbound packets.
package server

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pixil98/go-dungeon/internal/combat"
	"github.com/pixil98/go-dungeon/internal/display"
	"github.com/pixil98/go-dungeon/internal/game"
	"github.com/pixil98/go-dungeon/internal/proto"
)

// Sender enqueues one outbound packet to one client. It is the only
// outbound primitive the core uses; the core never touches a socket.
type Sender interface {
	Send(p proto.Packet, client uuid.UUID) error
}

// Recorder receives operational counters. Implementations must be safe
// for concurrent use. A nil Recorder disables recording.
type Recorder interface {
	SetPlayers(n int)
	CountEvent(kind string)
	CountCombat()
}

// Server owns the shared world. Two locks guard it: mu for the session
// registry and worldMu for the map. Any operation taking both acquires
// mu first, then worldMu, and releases both before any packet is sent.
// Senders may block or call back into the server, so publishing under
// either lock is a deadlock waiting to happen.
type Server struct {
	mu      sync.Mutex
	worldMu sync.Mutex

	sessions map[uuid.UUID]*Session
	world    *game.Map

	consts   Constants
	resolver *combat.Resolver
	rng      *rand.Rand
	sender   Sender
	rec      Recorder
	started  time.Time
}

// Opt configures a Server.
type Opt func(*Server)

// WithRecorder attaches an operational metrics recorder.
func WithRecorder(r Recorder) Opt {
	return func(s *Server) { s.rec = r }
}

// WithRandSource overrides the random source, making fight target
// selection and combat reproducible under test.
func WithRandSource(src rand.Source) Opt {
	return func(s *Server) {
		s.rng = rand.New(src)
		s.resolver = combat.NewResolver(src)
	}
}

// New creates a Server over a completed world map.
func New(world *game.Map, consts Constants, sender Sender, opts ...Opt) (*Server, error) {
	if err := consts.Validate(); err != nil {
		return nil, fmt.Errorf("validating game constants: %w", err)
	}
	if world == nil || world.StartRoom() == nil {
		return nil, fmt.Errorf("world map is incomplete")
	}

	src := rand.NewPCG(rand.Uint64(), rand.Uint64())
	s := &Server{
		sessions: map[uuid.UUID]*Session{},
		world:    world,
		consts:   consts,
		resolver: combat.NewResolver(src),
		rng:      rand.New(src),
		sender:   sender,
		started:  time.Now(),
	}

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dispatch routes one decoded event to its handler. It is safe to call
// from any goroutine; handlers serialize on the server's locks.
func (s *Server) Dispatch(e *proto.Event) error {
	if s.rec != nil {
		s.rec.CountEvent(string(e.Kind))
	}

	switch e.Kind {
	case proto.EventConnect:
		return s.HandleConnect(e.ClientID)
	case proto.EventDisconnect:
		return s.HandleDisconnect(e.ClientID)
	case proto.EventMessage:
		return s.HandleMessage(e.ClientID, e.Target, e.Content)
	case proto.EventChangeRoom:
		return s.HandleChangeRoom(e.ClientID, e.RoomNumber)
	case proto.EventFight:
		return s.HandleFight(e.ClientID)
	case proto.EventPvpFight:
		return s.HandlePvpFight(e.ClientID, e.Target)
	case proto.EventLoot:
		return s.HandleLoot(e.ClientID, e.Target)
	case proto.EventStart:
		return s.HandleStart(e.ClientID)
	case proto.EventCharacter:
		return s.HandleCharacter(e.ClientID, e.Name, e.Attack, e.Defense, e.Regen, e.Description)
	case proto.EventLeave:
		return s.HandleLeave(e.ClientID)
	default:
		return fmt.Errorf("dispatching event: unknown kind %q", e.Kind)
	}
}

// delivery is one packet queued for one client.
type delivery struct {
	packet proto.Packet
	client uuid.UUID
}

// flush sends queued deliveries. Callers must have released all world
// locks first. Send failures are logged, not propagated: a slow or gone
// client must not fail the acting player's operation.
func (s *Server) flush(out []delivery) {
	for _, d := range out {
		if err := s.sender.Send(d.packet, d.client); err != nil {
			slog.Warn("sending packet", "client", d.client, "kind", d.packet.Kind(), "error", err)
		}
	}
}

// characterPacket builds the resync packet for an entity. Monsters are
// always "started"; a player's flag comes from its session.
func characterPacket(e *game.Entity, started bool) proto.Character {
	return proto.Character{
		Name:        e.Name,
		Alive:       e.Alive,
		Monster:     e.Monster,
		Started:     started,
		Attack:      e.Attack,
		Defense:     e.Defense,
		Regen:       e.Regen,
		Health:      e.Health,
		Gold:        e.Gold,
		Room:        e.Location,
		Description: e.Description,
	}
}

// roomView assembles the render model for a room as seen by one viewer.
// Callers hold both mu and worldMu.
func (s *Server) roomView(room *game.Room, viewer uuid.UUID) display.RoomView {
	view := display.RoomView{
		Name:        room.Name(),
		Description: room.Description(),
	}
	for _, id := range room.PlayerIDs() {
		if id == viewer {
			continue
		}
		if sess, ok := s.sessions[id]; ok && sess.Started {
			view.Occupants = append(view.Occupants, sess.Entity.Name)
		}
	}
	for _, m := range room.Monsters() {
		if m.Alive {
			view.Monsters = append(view.Monsters, m.Name)
		}
	}
	for _, n := range room.AdjacentRooms() {
		view.Exits = append(view.Exits, strconv.Itoa(n))
	}
	return view
}

// narrate queues a system message to one client, word-wrapped for text
// display.
func narrate(out []delivery, client uuid.UUID, recipient, text string) []delivery {
	return append(out, delivery{
		packet: proto.Message{
			Sender:    proto.SystemSender,
			Recipient: recipient,
			Content:   display.Wrap(text),
		},
		client: client,
	})
}

// roomEntryPackets builds everything a player needs on entering a room:
// the room info, the rendered narration, and a resync of every monster
// and fellow occupant. Callers hold both mu and worldMu.
func (s *Server) roomEntryPackets(room *game.Room, sess *Session) []delivery {
	var out []delivery

	out = append(out, delivery{
		packet: proto.RoomInfo{
			Number:      room.Number(),
			Name:        room.Name(),
			Description: room.Description(),
			Adjacent:    room.AdjacentRooms(),
		},
		client: sess.ClientID,
	})

	if text, err := display.RenderRoom(s.roomView(room, sess.ClientID)); err == nil {
		out = narrate(out, sess.ClientID, sess.Entity.Name, text)
	} else {
		slog.Warn("rendering room", "room", room.Number(), "error", err)
	}

	for _, m := range room.DirtyMonsters(true) {
		out = append(out, delivery{packet: characterPacket(m, true), client: sess.ClientID})
	}
	for _, id := range room.PlayerIDs() {
		if id == sess.ClientID {
			continue
		}
		if other, ok := s.sessions[id]; ok && other.Started {
			out = append(out, delivery{packet: characterPacket(other.Entity, true), client: sess.ClientID})
		}
	}

	return out
}

// broadcastToRoom queues one packet to every started occupant of a room,
// optionally excluding one client. Callers hold both mu and worldMu; the
// queued packets go out only after the locks are released.
func (s *Server) broadcastToRoom(out []delivery, room *game.Room, p proto.Packet, exclude uuid.UUID) []delivery {
	for _, id := range room.PlayerIDs() {
		if id == exclude {
			continue
		}
		if sess, ok := s.sessions[id]; ok && sess.Started {
			out = append(out, delivery{packet: p, client: id})
		}
	}
	return out
}
