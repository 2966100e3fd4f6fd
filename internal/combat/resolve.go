// Package combat resolves a single exchange of blows between two
// entities. Resolution is pure arithmetic over in-memory state; it never
// fails and performs no I/O.
package combat

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/pixil98/go-dungeon/internal/game"
)

// maxInitiative is the upper bound of the initiative draw. The two
// initiative shares jointly describe a direction on the unit circle, so
// each lies in [0, 1] and their vector has length 1; drawing from
// [0, sqrt(2)) biases the first strike toward the higher-attack side
// without guaranteeing it.
var maxInitiative = math.Sqrt(2)

// Resolver runs fight exchanges using an injected random source so that
// outcomes are reproducible under test.
type Resolver struct {
	rng *rand.Rand
}

// NewResolver creates a Resolver drawing from the given source.
func NewResolver(src rand.Source) *Resolver {
	return &Resolver{rng: rand.New(src)}
}

// Resolve runs one full exchange between two living entities and returns
// the narrative. Initiative decides who swings first; the survivor of the
// first swing retaliates unconditionally. Afterwards each survivor
// regenerates once.
func (r *Resolver) Resolve(left, right *game.Entity) string {
	var sb strings.Builder

	leftShare, _ := initiativeShares(left, right)
	draw := r.rng.Float64() * maxInitiative

	if draw < leftShare {
		r.exchange(&sb, left, right)
	} else {
		r.exchange(&sb, right, left)
	}

	r.regenerate(&sb, left)
	r.regenerate(&sb, right)

	return sb.String()
}

// exchange is one attack by the initiator plus the defender's
// retaliation if it survived.
func (r *Resolver) exchange(sb *strings.Builder, initiator, defender *game.Entity) {
	fmt.Fprintf(sb, "%s tries to hit %s.\n", initiator.Name, defender.Name)
	r.attack(sb, initiator, defender)

	if !defender.Alive {
		return
	}

	fmt.Fprintf(sb, "%s attempts to strike back!\n", defender.Name)
	r.attack(sb, defender, initiator)
}

func (r *Resolver) attack(sb *strings.Builder, attacker, defender *game.Entity) {
	chance := hitChance(attacker.EffectiveAttack(), defender.EffectiveDefense())
	if r.rng.Float64() >= chance {
		sb.WriteString("They miss!\n")
		return
	}

	dmg := r.rollDamage(attacker.Attack, defender.Defense)
	fmt.Fprintf(sb, "They hit for %d damage!\n", dmg)

	defender.ApplyDamage(dmg)
	if !defender.Alive {
		fmt.Fprintf(sb, "%s has fallen!\n", defender.Name)
	}
}

func (r *Resolver) regenerate(sb *strings.Builder, e *game.Entity) {
	if !e.Alive {
		return
	}
	if healed := e.Regenerate(); healed > 0 {
		fmt.Fprintf(sb, "%s regenerated %d health.\n", e.Name, healed)
	}
}

// initiativeShares normalizes the two effective attack values onto the
// unit circle: share = attack / sqrt(l^2 + r^2).
func initiativeShares(left, right *game.Entity) (float64, float64) {
	l := float64(left.EffectiveAttack())
	r := float64(right.EffectiveAttack())
	scalar := math.Sqrt(l*l + r*r)
	if scalar == 0 {
		return 0.5, 0.5
	}
	return l / scalar, r / scalar
}

// hitChance floors the hit probability at 0.9 rather than capping it.
// The asymmetry is intentional and load-bearing: even a heavily
// outmatched attacker connects nine times out of ten.
func hitChance(attack, defense int) float64 {
	if defense <= 0 {
		return 1
	}
	return math.Max(0.9, 0.75*float64(attack)/float64(defense))
}

// rollDamage draws uniformly from [min, max) where max is the attacker's
// base attack and min is min(attack - 1.5*defense, attack*0.1). The lower
// bound may be negative, in which case a strong defender shrugs the blow
// off into healing. A lower bound above the upper bound is clamped down
// so the draw range is always valid.
func (r *Resolver) rollDamage(attack, defense int) int {
	maxDmg := float64(attack)
	minDmg := math.Min(float64(attack)-1.5*float64(defense), maxDmg*0.1)
	if minDmg > maxDmg {
		minDmg = maxDmg
	}
	if minDmg == maxDmg {
		return int(math.Floor(maxDmg))
	}

	dmg := minDmg + r.rng.Float64()*(maxDmg-minDmg)
	return int(math.Floor(dmg))
}
