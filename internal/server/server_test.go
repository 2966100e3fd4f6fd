package server

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/pixil98/go-dungeon/internal/game"
	"github.com/pixil98/go-dungeon/internal/proto"
	"github.com/pixil98/go-testutil"
)

type recordedSend struct {
	packet proto.Packet
	client uuid.UUID
}

// captureSender records every packet instead of sending it.
type captureSender struct {
	sent []recordedSend
}

func (c *captureSender) Send(p proto.Packet, client uuid.UUID) error {
	c.sent = append(c.sent, recordedSend{packet: p, client: client})
	return nil
}

func (c *captureSender) reset() {
	c.sent = nil
}

// to returns the packets recorded for one client, in send order.
func (c *captureSender) to(client uuid.UUID) []proto.Packet {
	var out []proto.Packet
	for _, s := range c.sent {
		if s.client == client {
			out = append(out, s.packet)
		}
	}
	return out
}

func (c *captureSender) firstError(client uuid.UUID) *proto.Error {
	for _, p := range c.to(client) {
		if e, ok := p.(proto.Error); ok {
			return &e
		}
	}
	return nil
}

func (c *captureSender) hasKind(client uuid.UUID, kind proto.PacketKind) bool {
	for _, p := range c.to(client) {
		if p.Kind() == kind {
			return true
		}
	}
	return false
}

type staticSpawner struct {
	entities []*game.Entity
}

func (s *staticSpawner) Spawn() []*game.Entity {
	return s.entities
}

func testConstants() Constants {
	return Constants{
		StatPoints:  100,
		StatLimit:   100,
		InitHealth:  100,
		InitGold:    0,
		Description: "a dark and gloomy dungeon",
	}
}

// newTestServer builds a two-room world. Room 1 (start) is empty, room 2
// holds the monsters from spawn.
func newTestServer(t *testing.T, spawn []*game.Entity) (*Server, *captureSender) {
	t.Helper()

	b := game.NewMapBuilder()
	r1 := b.RegisterRoom("Entrance", "A crumbling archway.", nil)
	r2 := b.RegisterRoom("Crypt", "Dust and bones.", &staticSpawner{entities: spawn})
	if err := b.LinkRooms(r1, r2); err != nil {
		t.Fatalf("linking rooms: %v", err)
	}
	if err := b.SetStartRoom(r1); err != nil {
		t.Fatalf("setting start room: %v", err)
	}
	world, err := b.Complete()
	if err != nil {
		t.Fatalf("completing map: %v", err)
	}

	sender := &captureSender{}
	srv, err := New(world, testConstants(), sender,
		WithRandSource(rand.NewPCG(7, 13)))
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}
	return srv, sender
}

// join runs a client through connect, character, and start.
func join(t *testing.T, srv *Server, name string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	if err := srv.HandleConnect(id); err != nil {
		t.Fatalf("connect %s: %v", name, err)
	}
	if err := srv.HandleCharacter(id, name, 40, 30, 30, "a tester"); err != nil {
		t.Fatalf("character %s: %v", name, err)
	}
	if err := srv.HandleStart(id); err != nil {
		t.Fatalf("start %s: %v", name, err)
	}
	return id
}

func TestConnectSendsGameInfo(t *testing.T) {
	srv, sender := newTestServer(t, nil)

	id := uuid.New()
	if err := srv.HandleConnect(id); err != nil {
		t.Fatalf("connect: %v", err)
	}

	packets := sender.to(id)
	if len(packets) != 1 {
		t.Fatalf("expected 1 packet, got %d", len(packets))
	}
	info, ok := packets[0].(proto.GameInfo)
	if !ok {
		t.Fatalf("expected GameInfo, got %T", packets[0])
	}
	testutil.AssertEqual(t, "initial points", info.InitialPoints, 100)
	testutil.AssertEqual(t, "stat limit", info.StatLimit, 100)
}

func TestCharacterStatBudget(t *testing.T) {
	tests := map[string]struct {
		attack, defense, regen int
		expCode                proto.ErrorCode
		expAccept              bool
	}{
		"exact budget":    {40, 30, 30, "", true},
		"all attack":      {100, 0, 0, "", true},
		"under budget":    {10, 10, 10, proto.ErrStat, false},
		"over budget":     {50, 50, 50, proto.ErrStat, false},
		"negative stat":   {110, -5, -5, proto.ErrStat, false},
		"stat over limit": {101, -1, 0, proto.ErrStat, false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			srv, sender := newTestServer(t, nil)
			id := uuid.New()
			if err := srv.HandleConnect(id); err != nil {
				t.Fatalf("connect: %v", err)
			}
			sender.reset()

			if err := srv.HandleCharacter(id, "Tester", tt.attack, tt.defense, tt.regen, ""); err != nil {
				t.Fatalf("character: %v", err)
			}

			testutil.AssertEqual(t, "accepted", sender.hasKind(id, proto.KindAccept), tt.expAccept)
			if !tt.expAccept {
				e := sender.firstError(id)
				if e == nil {
					t.Fatal("expected an error packet")
				}
				testutil.AssertEqual(t, "error code", e.Code, tt.expCode)
			}
		})
	}
}

func TestCharacterNameCollision(t *testing.T) {
	srv, sender := newTestServer(t, nil)
	join(t, srv, "Alice")

	id := uuid.New()
	if err := srv.HandleConnect(id); err != nil {
		t.Fatalf("connect: %v", err)
	}
	sender.reset()

	if err := srv.HandleCharacter(id, "Alice", 40, 30, 30, ""); err != nil {
		t.Fatalf("character: %v", err)
	}

	e := sender.firstError(id)
	if e == nil {
		t.Fatal("expected an error packet")
	}
	testutil.AssertEqual(t, "error code", e.Code, proto.ErrOther)
}

func TestStartRequiresCharacter(t *testing.T) {
	srv, sender := newTestServer(t, nil)

	id := uuid.New()
	if err := srv.HandleConnect(id); err != nil {
		t.Fatalf("connect: %v", err)
	}
	sender.reset()

	if err := srv.HandleStart(id); err != nil {
		t.Fatalf("start: %v", err)
	}

	e := sender.firstError(id)
	if e == nil {
		t.Fatal("expected an error packet")
	}
	testutil.AssertEqual(t, "error code", e.Code, proto.ErrNotReady)
}

func TestStartPlacesPlayerInStartRoom(t *testing.T) {
	srv, sender := newTestServer(t, nil)
	id := join(t, srv, "Alice")

	srv.worldMu.Lock()
	room := srv.world.PlayerRoom(id)
	srv.worldMu.Unlock()
	if room == nil {
		t.Fatal("player not placed in any room")
	}
	testutil.AssertEqual(t, "start room", room.Number(), 1)

	if !sender.hasKind(id, proto.KindRoomInfo) {
		t.Error("expected a room info packet on start")
	}
	if !sender.hasKind(id, proto.KindAccept) {
		t.Error("expected an accept packet on start")
	}
}

func TestChangeRoom(t *testing.T) {
	tests := map[string]struct {
		target  int
		expCode proto.ErrorCode
		expRoom int
	}{
		"adjacent room":     {target: 2, expRoom: 2},
		"nonexistent room":  {target: 99, expCode: proto.ErrBadRoom, expRoom: 1},
		"room not adjacent": {target: 1, expCode: proto.ErrBadRoom, expRoom: 1},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			srv, sender := newTestServer(t, nil)
			id := join(t, srv, "Alice")
			sender.reset()

			if err := srv.HandleChangeRoom(id, tt.target); err != nil {
				t.Fatalf("change room: %v", err)
			}

			srv.worldMu.Lock()
			room := srv.world.PlayerRoom(id)
			srv.worldMu.Unlock()
			testutil.AssertEqual(t, "room after move", room.Number(), tt.expRoom)

			if tt.expCode != "" {
				e := sender.firstError(id)
				if e == nil {
					t.Fatal("expected an error packet")
				}
				testutil.AssertEqual(t, "error code", e.Code, tt.expCode)
			} else if !sender.hasKind(id, proto.KindRoomInfo) {
				t.Error("expected a room info packet after moving")
			}
		})
	}
}

func TestChangeRoomBeforeStart(t *testing.T) {
	srv, sender := newTestServer(t, nil)

	id := uuid.New()
	if err := srv.HandleConnect(id); err != nil {
		t.Fatalf("connect: %v", err)
	}
	sender.reset()

	if err := srv.HandleChangeRoom(id, 2); err != nil {
		t.Fatalf("change room: %v", err)
	}

	e := sender.firstError(id)
	if e == nil {
		t.Fatal("expected an error packet")
	}
	testutil.AssertEqual(t, "error code", e.Code, proto.ErrNotReady)
}

func TestFightNoMonsters(t *testing.T) {
	srv, sender := newTestServer(t, nil)
	id := join(t, srv, "Alice")
	sender.reset()

	if err := srv.HandleFight(id); err != nil {
		t.Fatalf("fight: %v", err)
	}

	e := sender.firstError(id)
	if e == nil {
		t.Fatal("expected an error packet")
	}
	testutil.AssertEqual(t, "error code", e.Code, proto.ErrNoTarget)
}

func TestFightKillsWeakMonster(t *testing.T) {
	// Against zero defense every swing lands and deals at least a tenth
	// of the attacker's strength, so a 10-health rat cannot outlast a
	// 40-attack player for long.
	rat := game.NewMonster("Rat", 1, 0, 0, 10, 3, "a mangy rat")
	srv, sender := newTestServer(t, []*game.Entity{rat})
	id := join(t, srv, "Alice")

	if err := srv.HandleChangeRoom(id, 2); err != nil {
		t.Fatalf("change room: %v", err)
	}

	for i := 0; i < 10 && rat.Alive; i++ {
		sender.reset()
		if err := srv.HandleFight(id); err != nil {
			t.Fatalf("fight %d: %v", i, err)
		}
		if e := sender.firstError(id); e != nil {
			t.Fatalf("fight %d rejected: %s", i, e.Message)
		}
	}

	if rat.Alive {
		t.Error("rat survived 10 exchanges against a 40-attack player")
	}
}

func TestFightSendsNarrativeAndResync(t *testing.T) {
	rat := game.NewMonster("Rat", 5, 0, 0, 10, 3, "a mangy rat")
	srv, sender := newTestServer(t, []*game.Entity{rat})
	id := join(t, srv, "Alice")

	if err := srv.HandleChangeRoom(id, 2); err != nil {
		t.Fatalf("change room: %v", err)
	}
	sender.reset()

	if err := srv.HandleFight(id); err != nil {
		t.Fatalf("fight: %v", err)
	}

	var sawNarrative, sawRat, sawAlice bool
	for _, p := range sender.to(id) {
		switch pkt := p.(type) {
		case proto.Message:
			if strings.Contains(pkt.Content, "tries to hit") {
				sawNarrative = true
			}
		case proto.Character:
			switch pkt.Name {
			case "Rat":
				sawRat = true
			case "Alice":
				sawAlice = true
			}
		}
	}
	if !sawNarrative {
		t.Error("expected a combat narrative message")
	}
	if !sawRat || !sawAlice {
		t.Errorf("expected resync for both combatants, rat=%v alice=%v", sawRat, sawAlice)
	}
}

func TestPvpFightRejected(t *testing.T) {
	srv, sender := newTestServer(t, nil)
	id := join(t, srv, "Alice")
	join(t, srv, "Bob")
	sender.reset()

	if err := srv.HandlePvpFight(id, "Bob"); err != nil {
		t.Fatalf("pvp fight: %v", err)
	}

	e := sender.firstError(id)
	if e == nil {
		t.Fatal("expected an error packet")
	}
	testutil.AssertEqual(t, "error code", e.Code, proto.ErrOther)
}

func TestLootExactlyOnce(t *testing.T) {
	rat := game.NewMonster("Rat", 0, 0, 0, 10, 25, "a mangy rat")
	rat.Alive = false
	rat.Health = 0
	srv, sender := newTestServer(t, []*game.Entity{rat})
	id := join(t, srv, "Alice")

	if err := srv.HandleChangeRoom(id, 2); err != nil {
		t.Fatalf("change room: %v", err)
	}
	sender.reset()

	if err := srv.HandleLoot(id, "Rat"); err != nil {
		t.Fatalf("loot: %v", err)
	}
	if e := sender.firstError(id); e != nil {
		t.Fatalf("first loot rejected: %s", e.Message)
	}

	srv.mu.Lock()
	gold := srv.sessions[id].Entity.Gold
	srv.mu.Unlock()
	testutil.AssertEqual(t, "gold after loot", gold, 25)

	sender.reset()
	if err := srv.HandleLoot(id, "Rat"); err != nil {
		t.Fatalf("second loot: %v", err)
	}
	e := sender.firstError(id)
	if e == nil {
		t.Fatal("expected second loot to be rejected")
	}
	testutil.AssertEqual(t, "error code", e.Code, proto.ErrNoTarget)
}

func TestLootLivingMonster(t *testing.T) {
	rat := game.NewMonster("Rat", 0, 0, 0, 10, 25, "a mangy rat")
	srv, sender := newTestServer(t, []*game.Entity{rat})
	id := join(t, srv, "Alice")

	if err := srv.HandleChangeRoom(id, 2); err != nil {
		t.Fatalf("change room: %v", err)
	}
	sender.reset()

	if err := srv.HandleLoot(id, "Rat"); err != nil {
		t.Fatalf("loot: %v", err)
	}

	e := sender.firstError(id)
	if e == nil {
		t.Fatal("expected an error packet")
	}
	testutil.AssertEqual(t, "error code", e.Code, proto.ErrOther)
}

func TestMessageRouting(t *testing.T) {
	srv, sender := newTestServer(t, nil)
	alice := join(t, srv, "Alice")
	bob := join(t, srv, "Bob")
	sender.reset()

	if err := srv.HandleMessage(alice, "Bob", "hello there"); err != nil {
		t.Fatalf("message: %v", err)
	}

	packets := sender.to(bob)
	if len(packets) != 1 {
		t.Fatalf("expected 1 packet for Bob, got %d", len(packets))
	}
	msg, ok := packets[0].(proto.Message)
	if !ok {
		t.Fatalf("expected Message, got %T", packets[0])
	}
	testutil.AssertEqual(t, "sender", msg.Sender, "Alice")
	testutil.AssertEqual(t, "content", msg.Content, "hello there")
}

func TestMessageToSelf(t *testing.T) {
	srv, sender := newTestServer(t, nil)
	alice := join(t, srv, "Alice")
	sender.reset()

	if err := srv.HandleMessage(alice, "Alice", "note to self"); err != nil {
		t.Fatalf("message: %v", err)
	}

	packets := sender.to(alice)
	if len(packets) != 1 {
		t.Fatalf("expected 1 packet, got %d", len(packets))
	}
	msg, ok := packets[0].(proto.Message)
	if !ok {
		t.Fatalf("expected Message, got %T", packets[0])
	}
	testutil.AssertEqual(t, "content", msg.Content, "note to self")
}

func TestMessageUnknownTarget(t *testing.T) {
	srv, sender := newTestServer(t, nil)
	alice := join(t, srv, "Alice")
	sender.reset()

	if err := srv.HandleMessage(alice, "Nobody", "hello?"); err != nil {
		t.Fatalf("message: %v", err)
	}

	e := sender.firstError(alice)
	if e == nil {
		t.Fatal("expected an error packet")
	}
	testutil.AssertEqual(t, "error code", e.Code, proto.ErrNoTarget)
}

func TestLeaveIsIdempotent(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	id := join(t, srv, "Alice")

	if err := srv.HandleLeave(id); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if err := srv.HandleLeave(id); err != nil {
		t.Fatalf("second leave: %v", err)
	}
	if err := srv.HandleDisconnect(id); err != nil {
		t.Fatalf("disconnect after leave: %v", err)
	}

	srv.worldMu.Lock()
	gone := srv.world.PlayerRoom(id) == nil
	srv.worldMu.Unlock()
	if !gone {
		t.Error("player still in the world after leaving")
	}
}

func TestLeaveNotifiesRoom(t *testing.T) {
	srv, sender := newTestServer(t, nil)
	join(t, srv, "Alice")
	bob := join(t, srv, "Bob")
	alice := srv.mustFindClient(t, "Alice")
	sender.reset()

	if err := srv.HandleLeave(alice); err != nil {
		t.Fatalf("leave: %v", err)
	}

	var notified bool
	for _, p := range sender.to(bob) {
		if msg, ok := p.(proto.Message); ok && strings.Contains(msg.Content, "Alice has left") {
			notified = true
		}
	}
	if !notified {
		t.Error("expected Bob to be told Alice left")
	}
}

// mustFindClient resolves a character name back to its client id.
func (s *Server) mustFindClient(t *testing.T, name string) uuid.UUID {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessionByName(name)
	if sess == nil {
		t.Fatalf("no session named %q", name)
	}
	return sess.ClientID
}

func TestTickRegeneratesStartedPlayers(t *testing.T) {
	srv, sender := newTestServer(t, nil)
	id := join(t, srv, "Alice")

	srv.mu.Lock()
	srv.sessions[id].Entity.Health = 50
	srv.mu.Unlock()
	sender.reset()

	if err := srv.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}

	srv.mu.Lock()
	health := srv.sessions[id].Entity.Health
	dirty := srv.sessions[id].Entity.Dirty
	srv.mu.Unlock()

	if health <= 50 {
		t.Errorf("expected regen to raise health above 50, got %d", health)
	}
	if dirty {
		t.Error("expected dirty flag cleared after tick")
	}
	if !sender.hasKind(id, proto.KindCharacter) {
		t.Error("expected a character resync packet from the tick")
	}
}

func TestTickIsQuietWhenNothingChanged(t *testing.T) {
	srv, sender := newTestServer(t, nil)
	id := join(t, srv, "Alice")

	if err := srv.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	sender.reset()

	if err := srv.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	testutil.AssertEqual(t, "packets from idle tick", len(sender.to(id)), 0)
}

func TestChatRateLimit(t *testing.T) {
	b := game.NewMapBuilder()
	r1 := b.RegisterRoom("Entrance", "A crumbling archway.", nil)
	if err := b.SetStartRoom(r1); err != nil {
		t.Fatalf("setting start room: %v", err)
	}
	world, err := b.Complete()
	if err != nil {
		t.Fatalf("completing map: %v", err)
	}

	consts := testConstants()
	consts.ChatPerSecond = 0.001
	consts.ChatBurst = 2

	sender := &captureSender{}
	srv, err := New(world, consts, sender)
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}

	id := join(t, srv, "Alice")
	sender.reset()

	for i := 0; i < 5; i++ {
		if err := srv.HandleMessage(id, "Alice", fmt.Sprintf("spam %d", i)); err != nil {
			t.Fatalf("message %d: %v", i, err)
		}
	}

	var delivered, limited int
	for _, p := range sender.to(id) {
		switch pkt := p.(type) {
		case proto.Message:
			delivered++
		case proto.Error:
			if pkt.Code == proto.ErrOther {
				limited++
			}
		}
	}
	testutil.AssertEqual(t, "delivered within burst", delivered, 2)
	testutil.AssertEqual(t, "rate limited", limited, 3)
}

type countingRecorder struct {
	players int
	events  map[string]int
	combats int
}

func (r *countingRecorder) SetPlayers(n int)       { r.players = n }
func (r *countingRecorder) CountEvent(kind string) { r.events[kind]++ }
func (r *countingRecorder) CountCombat()           { r.combats++ }

func TestDispatchRecordsEvents(t *testing.T) {
	b := game.NewMapBuilder()
	r1 := b.RegisterRoom("Entrance", "A crumbling archway.", nil)
	if err := b.SetStartRoom(r1); err != nil {
		t.Fatalf("setting start room: %v", err)
	}
	world, err := b.Complete()
	if err != nil {
		t.Fatalf("completing map: %v", err)
	}

	rec := &countingRecorder{events: map[string]int{}}
	srv, err := New(world, testConstants(), &captureSender{}, WithRecorder(rec))
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}

	id := uuid.New()
	events := []*proto.Event{
		{Kind: proto.EventConnect, ClientID: id},
		{Kind: proto.EventCharacter, ClientID: id, Name: "Alice", Attack: 40, Defense: 30, Regen: 30},
		{Kind: proto.EventStart, ClientID: id},
	}
	for _, e := range events {
		if err := srv.Dispatch(e); err != nil {
			t.Fatalf("dispatching %s: %v", e.Kind, err)
		}
	}

	testutil.AssertEqual(t, "players gauge", rec.players, 1)
	testutil.AssertEqual(t, "connect count", rec.events[string(proto.EventConnect)], 1)
	testutil.AssertEqual(t, "start count", rec.events[string(proto.EventStart)], 1)

	if err := srv.Dispatch(&proto.Event{Kind: "bogus", ClientID: id}); err == nil {
		t.Error("expected an error for an unknown event kind")
	}
}

func TestSnapshotAndCensus(t *testing.T) {
	rat := game.NewMonster("Rat", 0, 0, 0, 10, 25, "a mangy rat")
	srv, _ := newTestServer(t, []*game.Entity{rat})
	join(t, srv, "Alice")

	st := srv.Snapshot()
	testutil.AssertEqual(t, "sessions", st.Sessions, 1)
	testutil.AssertEqual(t, "started", st.Started, 1)
	testutil.AssertEqual(t, "rooms", st.Rooms, 2)

	census := srv.Census()
	if len(census) != 2 {
		t.Fatalf("expected 2 rooms in census, got %d", len(census))
	}
	testutil.AssertEqual(t, "room 1 players", census[0].Players, 1)
	testutil.AssertEqual(t, "room 2 monsters", census[1].Monsters, 1)
	testutil.AssertEqual(t, "room 2 alive", census[1].Alive, 1)
}
