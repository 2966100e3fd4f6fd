package game

import (
	"fmt"

	"github.com/pixil98/go-errors"
)

// goldSkillFactor controls how strongly gold scales a player's stats.
// Each point of gold adds 1% to the multiplier.
const goldSkillFactor = 0.01

// Entity is any actor in the world: a player character or a monster.
// Base stats are fixed at creation; the values used in combat are the
// effective stats, which for players scale with carried gold.
type Entity struct {
	Name        string
	Attack      int
	Defense     int
	Regen       int
	Health      int
	BaseHealth  int
	Gold        int
	Location    int // room number; 0 before entering the world
	Alive       bool
	Monster     bool
	Description string

	// Dirty marks the entity as changed since the last client resync.
	Dirty bool
}

// NewPlayer creates a player entity at full health. The caller is
// responsible for having validated the stat allocation.
func NewPlayer(name string, attack, defense, regen, health, gold int, desc string) *Entity {
	return &Entity{
		Name:        name,
		Attack:      attack,
		Defense:     defense,
		Regen:       regen,
		Health:      health,
		BaseHealth:  health,
		Gold:        gold,
		Alive:       true,
		Monster:     false,
		Description: desc,
	}
}

// NewMonster creates a monster entity at full health.
func NewMonster(name string, attack, defense, regen, health, gold int, desc string) *Entity {
	return &Entity{
		Name:        name,
		Attack:      attack,
		Defense:     defense,
		Regen:       regen,
		Health:      health,
		BaseHealth:  health,
		Gold:        gold,
		Alive:       true,
		Monster:     true,
		Description: desc,
	}
}

// SkillMultiplier returns the gold-based stat scale. Monsters are never
// scaled; a player's multiplier grows linearly with carried gold, so
// richer players hit harder and resist more.
func (e *Entity) SkillMultiplier() float64 {
	if e.Monster {
		return 1
	}
	return 1 + float64(e.Gold)*goldSkillFactor
}

// EffectiveAttack returns the attack stat used for hit and initiative rolls.
func (e *Entity) EffectiveAttack() int {
	return int(float64(e.Attack) * e.SkillMultiplier())
}

// EffectiveDefense returns the defense stat used for hit rolls.
func (e *Entity) EffectiveDefense() int {
	return int(float64(e.Defense) * e.SkillMultiplier())
}

// EffectiveRegen returns the regeneration stat used by Regenerate.
func (e *Entity) EffectiveRegen() int {
	return int(float64(e.Regen) * e.SkillMultiplier())
}

// MaxHealth returns the entity's health ceiling. Monster health is fixed;
// player health scales with the same gold multiplier as the other stats.
func (e *Entity) MaxHealth() int {
	if e.Monster {
		return e.BaseHealth
	}
	return int(float64(e.BaseHealth) * e.SkillMultiplier())
}

// Regenerate heals a flat tenth of the effective regeneration stat,
// clamped to max health. Dead entities do not regenerate. It returns the
// amount actually healed and marks the entity dirty when that is nonzero.
func (e *Entity) Regenerate() int {
	if !e.Alive {
		return 0
	}

	points := e.EffectiveRegen() / 10
	healed := min(e.Health+points, e.MaxHealth()) - e.Health
	if healed > 0 {
		e.Health += healed
		e.Dirty = true
	}
	return healed
}

// ApplyDamage subtracts damage from health, clamping the result to
// [0, MaxHealth], and keeps the alive flag consistent with health.
// Negative damage heals; the damage formula's floor can produce it.
func (e *Entity) ApplyDamage(damage int) {
	h := e.Health - damage
	if h < 0 {
		h = 0
	}
	if maxHP := e.MaxHealth(); h > maxHP {
		h = maxHP
	}
	e.Health = h
	e.Alive = h > 0
	e.Dirty = true
}

// Validate satisfies the stored-definition contract for hand-authored
// monsters: stats must be non-negative and health positive.
func (e *Entity) Validate() error {
	el := errors.NewErrorList()

	if e.Name == "" {
		el.Add(fmt.Errorf("entity name is required"))
	}
	if e.Attack < 0 || e.Defense < 0 || e.Regen < 0 {
		el.Add(fmt.Errorf("entity stats must be non-negative"))
	}
	if e.BaseHealth <= 0 {
		el.Add(fmt.Errorf("entity base health must be positive"))
	}

	return el.Err()
}
