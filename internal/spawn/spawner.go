// Package spawn holds the policies that populate rooms with monsters at
// world build time, and the archetype catalogue they draw from.
package spawn

import (
	"fmt"
	"math/rand/v2"

	"github.com/pixil98/go-dungeon/internal/game"
	"github.com/pixil98/go-errors"
)

// Archetype is a hand-authored monster definition. Spawners stamp out
// entity instances from it, drawing gold uniformly from [GoldMin, GoldMax).
type Archetype struct {
	Name        string `json:"name"`
	Attack      int    `json:"attack"`
	Defense     int    `json:"defense"`
	Regen       int    `json:"regen"`
	Health      int    `json:"health"`
	GoldMin     int    `json:"gold_min"`
	GoldMax     int    `json:"gold_max"`
	Description string `json:"description"`
}

// Validate satisfies the stored-definition contract.
func (a *Archetype) Validate() error {
	el := errors.NewErrorList()

	if a.Name == "" {
		el.Add(fmt.Errorf("archetype name is required"))
	}
	if a.Health <= 0 {
		el.Add(fmt.Errorf("archetype health must be positive"))
	}
	if a.GoldMax < a.GoldMin {
		el.Add(fmt.Errorf("archetype gold range is inverted"))
	}

	return el.Err()
}

func (a *Archetype) rollGold(rng *rand.Rand) int {
	if a.GoldMax <= a.GoldMin {
		return a.GoldMin
	}
	return a.GoldMin + rng.IntN(a.GoldMax-a.GoldMin)
}

// names disambiguates display names when a spawner produces several
// instances of one archetype. Downstream targeting (loot, resync) is by
// name, so every instance in a room must be addressable.
type namer struct {
	counts map[string]int
}

func newNamer() *namer {
	return &namer{counts: map[string]int{}}
}

func (n *namer) next(base string) string {
	n.counts[base]++
	if c := n.counts[base]; c > 1 {
		return fmt.Sprintf("%s %d", base, c)
	}
	return base
}

func (n *namer) build(a *Archetype, rng *rand.Rand) *game.Entity {
	return game.NewMonster(
		n.next(a.Name),
		a.Attack, a.Defense, a.Regen, a.Health,
		a.rollGold(rng),
		a.Description,
	)
}

// Fixed always produces the same single hand-authored monster, with only
// its gold randomized. Used for bosses and set-piece encounters.
type Fixed struct {
	archetype *Archetype
	rng       *rand.Rand
	names     *namer
}

// NewFixed creates a fixed spawner for one archetype.
func NewFixed(a *Archetype, rng *rand.Rand) *Fixed {
	return &Fixed{archetype: a, rng: rng, names: newNamer()}
}

func (s *Fixed) Spawn() []*game.Entity {
	return []*game.Entity{s.names.build(s.archetype, s.rng)}
}

// TierEntry pairs an archetype with its slice of the probability mass.
type TierEntry struct {
	Weight    int
	Archetype *Archetype
}

// Tiered selects one archetype per call from a cumulative-probability
// table. Entry weights must be positive and sum to exactly 100.
type Tiered struct {
	entries []TierEntry
	rng     *rand.Rand
	names   *namer
}

// NewTiered builds a tiered spawner, validating the probability table.
func NewTiered(entries []TierEntry, rng *rand.Rand) (*Tiered, error) {
	total := 0
	for i, e := range entries {
		if e.Weight <= 0 {
			return nil, fmt.Errorf("tier entry %d: weight must be positive", i)
		}
		if e.Archetype == nil {
			return nil, fmt.Errorf("tier entry %d: archetype is required", i)
		}
		total += e.Weight
	}
	if total != 100 {
		return nil, fmt.Errorf("tier weights sum to %d, want 100", total)
	}

	return &Tiered{entries: entries, rng: rng, names: newNamer()}, nil
}

func (s *Tiered) Spawn() []*game.Entity {
	return []*game.Entity{s.names.build(s.pick(), s.rng)}
}

func (s *Tiered) pick() *Archetype {
	val := s.rng.IntN(100)
	cumulative := 0
	for _, e := range s.entries {
		cumulative += e.Weight
		if val < cumulative {
			return e.Archetype
		}
	}
	// Unreachable: the weights sum to 100.
	return s.entries[len(s.entries)-1].Archetype
}

// Population draws a monster count uniformly from [min, max) and invokes
// its tiered spawner that many times.
type Population struct {
	min, max int
	inner    *Tiered
	rng      *rand.Rand
}

// NewPopulation wraps a tiered spawner with a [min, max) population draw.
func NewPopulation(min, max int, inner *Tiered, rng *rand.Rand) (*Population, error) {
	if min < 0 || max <= min {
		return nil, fmt.Errorf("population range [%d, %d) is invalid", min, max)
	}
	return &Population{min: min, max: max, inner: inner, rng: rng}, nil
}

func (s *Population) Spawn() []*game.Entity {
	count := s.min + s.rng.IntN(s.max-s.min)
	out := make([]*game.Entity, 0, count)
	for range count {
		out = append(out, s.inner.Spawn()...)
	}
	return out
}

// Composite concatenates the output of its sub-spawners in order. Used to
// mix a fixed boss spawn with rank-and-file population spawns in one room.
type Composite struct {
	parts []game.Spawner
}

// NewComposite creates a composite over an ordered list of sub-spawners.
func NewComposite(parts ...game.Spawner) *Composite {
	return &Composite{parts: parts}
}

func (s *Composite) Spawn() []*game.Entity {
	var out []*game.Entity
	for _, p := range s.parts {
		out = append(out, p.Spawn()...)
	}
	return out
}

// Null spawns nothing. Rooms without monsters use it.
type Null struct{}

func (Null) Spawn() []*game.Entity { return nil }
