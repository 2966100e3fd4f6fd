package game

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// MoveResult is the outcome of a player move between rooms.
type MoveResult int

const (
	MoveInvalidPlayer MoveResult = iota
	MoveInvalidRoom
	MoveSuccess
)

// Map is the complete room graph plus the designated start room. Its
// topology is immutable once built; occupancy and monster state mutate
// for the life of the process. The Map itself is not goroutine-safe: the
// world server guards it with its own lock.
type Map struct {
	rooms       map[int]*Room
	startRoomID int
}

// Room returns the room with the given number, or nil if unknown.
func (m *Map) Room(number int) *Room {
	return m.rooms[number]
}

// HasRoom reports whether a room number exists.
func (m *Map) HasRoom(number int) bool {
	_, ok := m.rooms[number]
	return ok
}

// StartRoom returns the designated starting room. The builder guarantees
// it exists on any completed map.
func (m *Map) StartRoom() *Room {
	return m.rooms[m.startRoomID]
}

// Rooms returns all rooms in ascending number order.
func (m *Map) Rooms() []*Room {
	out := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].num < out[j].num })
	return out
}

// PlayerRoom returns the room holding the given player, or nil. A player
// appears in at most one room's presence set, so a linear scan suffices
// at session scale.
func (m *Map) PlayerRoom(id uuid.UUID) *Room {
	for _, r := range m.rooms {
		if r.HasPlayer(id) {
			return r
		}
	}
	return nil
}

// HasPlayer reports whether any room holds the given player.
func (m *Map) HasPlayer(id uuid.UUID) bool {
	return m.PlayerRoom(id) != nil
}

// MovePlayer relocates a player to the target room. Adjacency is the
// caller's concern; this only checks that the player is in the world and
// the target exists. Moving a player onto their current room succeeds and
// leaves the presence sets consistent.
func (m *Map) MovePlayer(id uuid.UUID, target int) MoveResult {
	from := m.PlayerRoom(id)
	if from == nil {
		return MoveInvalidPlayer
	}

	to, ok := m.rooms[target]
	if !ok {
		return MoveInvalidRoom
	}

	from.RemovePlayer(id)
	to.PlacePlayer(id)
	return MoveSuccess
}

// ClearPlayer removes a player from every room's presence set. Safe to
// call for players that were never placed; removal is idempotent.
func (m *Map) ClearPlayer(id uuid.UUID) {
	for _, r := range m.rooms {
		r.RemovePlayer(id)
	}
}

// UpdateMonsters runs monster upkeep in every room.
func (m *Map) UpdateMonsters() {
	for _, r := range m.rooms {
		r.UpdateMonsters()
	}
}

// ClearDirtyFlags clears the resync flags on every monster. Called at the
// end of a tick after the diffs have been pushed.
func (m *Map) ClearDirtyFlags() {
	for _, r := range m.rooms {
		r.clearDirtyFlags()
	}
}

// MapBuilder assembles a Map: register rooms, link them, pick a start
// room, then Complete. Room numbers are dense, 1-based, and never reused.
type MapBuilder struct {
	buildee    *Map
	nextNumber int
}

// NewMapBuilder creates an empty builder.
func NewMapBuilder() *MapBuilder {
	return &MapBuilder{
		buildee: &Map{
			rooms: map[int]*Room{},
		},
		nextNumber: 1,
	}
}

// RegisterRoom adds a room and returns its assigned number.
func (b *MapBuilder) RegisterRoom(name, description string, spawner Spawner) int {
	num := b.nextNumber
	b.nextNumber++

	b.buildee.rooms[num] = &Room{
		num:         num,
		name:        name,
		description: description,
		players:     map[uuid.UUID]struct{}{},
		spawner:     spawner,
	}
	return num
}

// LinkRooms creates a bidirectional edge between two rooms. Linking an
// already-linked pair is a no-op, so adjacency lists stay duplicate-free.
func (b *MapBuilder) LinkRooms(a, c int) error {
	ra, ok := b.buildee.rooms[a]
	if !ok {
		return fmt.Errorf("linking rooms: unknown room %d", a)
	}
	rc, ok := b.buildee.rooms[c]
	if !ok {
		return fmt.Errorf("linking rooms: unknown room %d", c)
	}

	if ra.IsAdjacentTo(c) {
		return nil
	}
	ra.adjacent = append(ra.adjacent, c)
	rc.adjacent = append(rc.adjacent, a)
	return nil
}

// SetStartRoom designates where players enter the world.
func (b *MapBuilder) SetStartRoom(number int) error {
	if _, ok := b.buildee.rooms[number]; !ok {
		return fmt.Errorf("setting start room: unknown room %d", number)
	}
	b.buildee.startRoomID = number
	return nil
}

// Complete finalizes the map. It fails if no start room was set. On
// success every room's spawner runs exactly once, and the returned map's
// topology is frozen.
func (b *MapBuilder) Complete() (*Map, error) {
	if b.buildee.startRoomID == 0 {
		return nil, fmt.Errorf("completing map: no start room set")
	}

	for _, r := range b.buildee.rooms {
		r.runSpawner()
	}
	return b.buildee, nil
}
