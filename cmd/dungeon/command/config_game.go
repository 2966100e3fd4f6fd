package command

import (
	"fmt"

	"github.com/pixil98/go-dungeon/internal/server"
	"github.com/pixil98/go-errors"
)

type GameConfig struct {
	StatPoints  int    `json:"stat_points"`
	StatLimit   int    `json:"stat_limit"`
	InitHealth  int    `json:"init_health"`
	InitGold    int    `json:"init_gold"`
	Description string `json:"description"`

	ChatPerSecond float64 `json:"chat_per_second"`
	ChatBurst     int     `json:"chat_burst"`
}

func (g *GameConfig) Validate() error {
	el := errors.NewErrorList()

	if g.StatPoints <= 0 {
		el.Add(fmt.Errorf("stat_points must be positive"))
	}
	if g.StatLimit <= 0 {
		el.Add(fmt.Errorf("stat_limit must be positive"))
	}
	if g.InitHealth <= 0 {
		el.Add(fmt.Errorf("init_health must be positive"))
	}
	if g.InitGold < 0 {
		el.Add(fmt.Errorf("init_gold must be non-negative"))
	}
	if g.ChatPerSecond < 0 {
		el.Add(fmt.Errorf("chat_per_second must be non-negative"))
	}
	if g.ChatBurst < 0 {
		el.Add(fmt.Errorf("chat_burst must be non-negative"))
	}

	return el.Err()
}

func (g *GameConfig) constants() server.Constants {
	return server.Constants{
		StatPoints:    g.StatPoints,
		StatLimit:     g.StatLimit,
		InitHealth:    g.InitHealth,
		InitGold:      g.InitGold,
		Description:   g.Description,
		ChatPerSecond: g.ChatPerSecond,
		ChatBurst:     g.ChatBurst,
	}
}
