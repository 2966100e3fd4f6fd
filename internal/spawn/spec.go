package spawn

import (
	"fmt"
	"math/rand/v2"

	"github.com/pixil98/go-dungeon/internal/game"
	"github.com/pixil98/go-errors"
)

// Spec is the JSON shape of a spawner in a world definition. It is a
// closed tagged variant: exactly one of the policy types, with composite
// holding an ordered list of further Specs.
type Spec struct {
	Type string `json:"type"` // fixed | tiered | population | composite | null

	// Fixed
	Archetype string `json:"archetype,omitempty"`

	// Tiered and population
	Table string `json:"table,omitempty"` // low | mid | hard | spiders

	// Population
	Min int `json:"min,omitempty"`
	Max int `json:"max,omitempty"`

	// Composite
	Parts []Spec `json:"parts,omitempty"`
}

// Validate checks the spec without building it, so world construction
// can report every definition problem at once.
func (s *Spec) Validate() error {
	el := errors.NewErrorList()

	switch s.Type {
	case "null", "":
	case "fixed":
		if s.Archetype == "" {
			el.Add(fmt.Errorf("fixed spawner: archetype is required"))
		} else if _, err := LookupArchetype(s.Archetype); err != nil {
			el.Add(fmt.Errorf("fixed spawner: %w", err))
		}
	case "tiered":
		if _, ok := tierTables[s.Table]; !ok {
			el.Add(fmt.Errorf("tiered spawner: unknown table %q", s.Table))
		}
	case "population":
		if _, ok := tierTables[s.Table]; !ok {
			el.Add(fmt.Errorf("population spawner: unknown table %q", s.Table))
		}
		if s.Min < 0 || s.Max <= s.Min {
			el.Add(fmt.Errorf("population spawner: range [%d, %d) is invalid", s.Min, s.Max))
		}
	case "composite":
		if len(s.Parts) == 0 {
			el.Add(fmt.Errorf("composite spawner: at least one part is required"))
		}
		for i := range s.Parts {
			if err := s.Parts[i].Validate(); err != nil {
				el.Add(fmt.Errorf("composite part %d: %w", i, err))
			}
		}
	default:
		el.Add(fmt.Errorf("unknown spawner type %q", s.Type))
	}

	return el.Err()
}

// Build constructs the spawner the spec describes. An empty type is a
// null spawner, so rooms may simply omit the field.
func (s *Spec) Build(rng *rand.Rand) (game.Spawner, error) {
	switch s.Type {
	case "null", "":
		return Null{}, nil

	case "fixed":
		a, err := LookupArchetype(s.Archetype)
		if err != nil {
			return nil, fmt.Errorf("building fixed spawner: %w", err)
		}
		return NewFixed(a, rng), nil

	case "tiered":
		t, err := NewTable(s.Table, rng)
		if err != nil {
			return nil, fmt.Errorf("building tiered spawner: %w", err)
		}
		return t, nil

	case "population":
		t, err := NewTable(s.Table, rng)
		if err != nil {
			return nil, fmt.Errorf("building population spawner: %w", err)
		}
		p, err := NewPopulation(s.Min, s.Max, t, rng)
		if err != nil {
			return nil, fmt.Errorf("building population spawner: %w", err)
		}
		return p, nil

	case "composite":
		parts := make([]game.Spawner, 0, len(s.Parts))
		for i := range s.Parts {
			p, err := s.Parts[i].Build(rng)
			if err != nil {
				return nil, fmt.Errorf("building composite part %d: %w", i, err)
			}
			parts = append(parts, p)
		}
		return NewComposite(parts...), nil

	default:
		return nil, fmt.Errorf("unknown spawner type %q", s.Type)
	}
}
