package game

import (
	"math/rand/v2"

	"github.com/google/uuid"
)

// Spawner produces the monsters a room starts with. It is invoked exactly
// once per room, when the map is completed.
type Spawner interface {
	Spawn() []*Entity
}

// LootResult is the outcome of a loot attempt on a named monster.
type LootResult int

const (
	LootInvalidTarget LootResult = iota
	LootTargetAlive
	LootSuccess
)

// Room is one node of the world graph. It owns the monsters spawned in it
// and tracks which players are present. Rooms are created only by the
// MapBuilder; topology never changes after the map is completed.
type Room struct {
	num         int
	name        string
	description string
	adjacent    []int
	players     map[uuid.UUID]struct{}
	spawner     Spawner
	monsters    []*Entity
}

// Number returns the room's stable 1-based id.
func (r *Room) Number() int { return r.num }

// Name returns the room's display name.
func (r *Room) Name() string { return r.name }

// Description returns the room's static description text.
func (r *Room) Description() string { return r.description }

// AdjacentRooms returns the ids of rooms reachable from this one.
func (r *Room) AdjacentRooms() []int {
	out := make([]int, len(r.adjacent))
	copy(out, r.adjacent)
	return out
}

// IsAdjacentTo reports whether the given room number is directly linked.
func (r *Room) IsAdjacentTo(room int) bool {
	for _, n := range r.adjacent {
		if n == room {
			return true
		}
	}
	return false
}

// PlacePlayer adds a player to the room's presence set. Placing a player
// already present is a no-op.
func (r *Room) PlacePlayer(id uuid.UUID) {
	r.players[id] = struct{}{}
}

// RemovePlayer removes a player from the room's presence set if present.
func (r *Room) RemovePlayer(id uuid.UUID) {
	delete(r.players, id)
}

// HasPlayer reports whether the player is present in this room.
func (r *Room) HasPlayer(id uuid.UUID) bool {
	_, ok := r.players[id]
	return ok
}

// PlayerIDs returns the ids of all players present.
func (r *Room) PlayerIDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(r.players))
	for id := range r.players {
		out = append(out, id)
	}
	return out
}

// Monsters returns the room's monster list, looted monsters excluded.
func (r *Room) Monsters() []*Entity {
	out := make([]*Entity, len(r.monsters))
	copy(out, r.monsters)
	return out
}

// RandomAliveMonster picks a uniformly random living monster, or nil if
// none remain.
func (r *Room) RandomAliveMonster(rng *rand.Rand) *Entity {
	var alive []*Entity
	for _, m := range r.monsters {
		if m.Alive {
			alive = append(alive, m)
		}
	}

	switch len(alive) {
	case 0:
		return nil
	case 1:
		return alive[0]
	}
	return alive[rng.IntN(len(alive))]
}

// LootMonster transfers a dead monster out of the room by display name.
// On success the monster is removed, so a second attempt on the same name
// reports an invalid target rather than paying out twice.
func (r *Room) LootMonster(target string) (LootResult, *Entity) {
	for i, m := range r.monsters {
		if m.Name != target {
			continue
		}
		if m.Alive {
			return LootTargetAlive, nil
		}
		r.monsters = append(r.monsters[:i], r.monsters[i+1:]...)
		return LootSuccess, m
	}
	return LootInvalidTarget, nil
}

// DirtyMonsters returns the monsters needing a client resync. With force
// set, all monsters are returned regardless of their dirty flags.
func (r *Room) DirtyMonsters(force bool) []*Entity {
	var out []*Entity
	for _, m := range r.monsters {
		if m.Dirty || force {
			out = append(out, m)
		}
	}
	return out
}

// UpdateMonsters runs one upkeep pass over the room's monsters.
func (r *Room) UpdateMonsters() {
	for _, m := range r.monsters {
		m.Regenerate()
	}
}

func (r *Room) runSpawner() {
	if r.spawner == nil {
		return
	}
	for _, m := range r.spawner.Spawn() {
		m.Location = r.num
		r.monsters = append(r.monsters, m)
	}
}

func (r *Room) clearDirtyFlags() {
	for _, m := range r.monsters {
		m.Dirty = false
	}
}
