package driver

import "time"

type DungeonDriverOpt func(*DungeonDriver)

func WithTickLength(tickLength time.Duration) DungeonDriverOpt {
	return func(d *DungeonDriver) {
		d.tickLength = tickLength
	}
}
