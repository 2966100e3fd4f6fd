package command

import (
	"fmt"
	"net"

	"github.com/pixil98/go-errors"
)

type DiagConfig struct {
	Enabled        bool     `json:"enabled"`
	Address        string   `json:"address"`
	AllowedOrigins []string `json:"allowed_origins"`
}

func (d *DiagConfig) Validate() error {
	el := errors.NewErrorList()

	if d.Enabled {
		if d.Address == "" {
			el.Add(fmt.Errorf("address is required when diag is enabled"))
		} else if _, _, err := net.SplitHostPort(d.Address); err != nil {
			el.Add(fmt.Errorf("parsing address: %w", err))
		}
	}

	return el.Err()
}
