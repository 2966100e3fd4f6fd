package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-dungeon/internal/diag"
	"github.com/pixil98/go-dungeon/internal/driver"
	"github.com/pixil98/go-dungeon/internal/messaging"
	"github.com/pixil98/go-dungeon/internal/server"
	"github.com/pixil98/go-service"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	// Create the message fabric
	nats, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}

	// Load the world
	world, err := cfg.World.buildWorld()
	if err != nil {
		return nil, fmt.Errorf("building world: %w", err)
	}

	metrics := diag.NewMetrics()

	// Create the world server
	srv, err := server.New(world, cfg.Game.constants(), messaging.NewPublisher(nats),
		server.WithRecorder(metrics))
	if err != nil {
		return nil, fmt.Errorf("creating world server: %w", err)
	}

	// Setup the tick driver
	tickInterval, err := time.ParseDuration(cfg.TickInterval)
	if err != nil {
		return nil, fmt.Errorf("parsing tick_interval: %w", err)
	}
	drv := driver.NewDungeonDriver([]driver.Manager{srv},
		driver.WithTickLength(tickInterval))

	workers := service.WorkerList{
		"nats":   nats,
		"bridge": messaging.NewEventBridge(nats, srv),
		"driver": drv,
	}

	if cfg.Diag.Enabled {
		workers["diag"] = diag.NewHttpServer(cfg.Diag.Address, cfg.Diag.AllowedOrigins, srv, metrics)
	}

	return workers, nil
}
