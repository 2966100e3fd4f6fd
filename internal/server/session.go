package server

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pixil98/go-dungeon/internal/game"
	"github.com/pixil98/go-errors"
	"golang.org/x/time/rate"
)

// Constants are the world rules loaded once at startup and immutable for
// the process lifetime.
type Constants struct {
	StatPoints  int    // exact sum required of attack+defense+regen
	StatLimit   int    // ceiling on any single stat
	InitHealth  int    // starting (and base) health for new characters
	InitGold    int    // starting gold for new characters
	Description string // game description shown on connect

	// Chat flood control: sustained messages per second and burst size.
	ChatPerSecond float64
	ChatBurst     int
}

// Validate checks the constants before the world is allowed to serve.
func (c *Constants) Validate() error {
	el := errors.NewErrorList()

	if c.StatPoints <= 0 {
		el.Add(fmt.Errorf("stat points must be positive"))
	}
	if c.StatLimit <= 0 {
		el.Add(fmt.Errorf("stat limit must be positive"))
	}
	if c.InitHealth <= 0 {
		el.Add(fmt.Errorf("initial health must be positive"))
	}
	if c.InitGold < 0 {
		el.Add(fmt.Errorf("initial gold must be non-negative"))
	}

	return el.Err()
}

func (c *Constants) chatLimiter() *rate.Limiter {
	per := c.ChatPerSecond
	if per <= 0 {
		per = 2
	}
	burst := c.ChatBurst
	if burst <= 0 {
		burst = 5
	}
	return rate.NewLimiter(rate.Limit(per), burst)
}

// checkStats verifies a character submission against the stat budget.
// It returns a user-facing failure reason, or "" when the stats pass.
func (c *Constants) checkStats(attack, defense, regen int) string {
	if attack < 0 || defense < 0 || regen < 0 {
		return "Stats must be non-negative."
	}
	for _, stat := range []int{attack, defense, regen} {
		if stat > c.StatLimit {
			return fmt.Sprintf("No single stat may exceed %d.", c.StatLimit)
		}
	}
	if total := attack + defense + regen; total != c.StatPoints {
		return fmt.Sprintf("Stats must total exactly %d points, got %d.", c.StatPoints, total)
	}
	return ""
}

// Session is the per-connection record. It moves through
// connected -> ready (valid character submitted) -> started (in-world),
// and is removed on disconnect from any state.
type Session struct {
	ClientID uuid.UUID
	Entity   *game.Entity
	Ready    bool
	Started  bool

	chat *rate.Limiter
}

func newSession(id uuid.UUID, c *Constants) *Session {
	return &Session{
		ClientID: id,
		Entity:   &game.Entity{}, // placeholder until a character is submitted
		chat:     c.chatLimiter(),
	}
}

// allowChat reports whether the session is under its chat rate limit.
func (s *Session) allowChat() bool {
	return s.chat == nil || s.chat.Allow()
}
