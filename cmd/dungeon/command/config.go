package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

type Config struct {
	TickInterval string      `json:"tick_interval"`
	World        WorldConfig `json:"world"`
	Nats         NatsConfig  `json:"nats"`
	Diag         DiagConfig  `json:"diag"`
	Game         GameConfig  `json:"game"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	d, err := time.ParseDuration(c.TickInterval)
	if err != nil {
		el.Add(fmt.Errorf("parsing tick_interval: %w", err))
	} else if d < time.Second {
		el.Add(fmt.Errorf("tick_interval must be at least 1 second"))
	}

	el.Add(c.World.Validate())
	el.Add(c.Nats.Validate())
	el.Add(c.Diag.Validate())
	el.Add(c.Game.Validate())

	return el.Err()
}
