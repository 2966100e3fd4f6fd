package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/pixil98/go-dungeon/internal/proto"
	"github.com/pixil98/go-log"
)

// Dispatcher consumes one decoded event.
type Dispatcher interface {
	Dispatch(e *proto.Event) error
}

// EventBridge subscribes to the event subject and feeds decoded events
// into the world server. Malformed events and handler failures are
// logged and dropped; one bad front end must not stall the fabric.
type EventBridge struct {
	server     *NatsServer
	dispatcher Dispatcher
}

func NewEventBridge(server *NatsServer, dispatcher Dispatcher) *EventBridge {
	return &EventBridge{
		server:     server,
		dispatcher: dispatcher,
	}
}

func (b *EventBridge) Start(ctx context.Context) error {
	logger := log.GetLogger(ctx)

	// Workers start in no particular order, so wait for the fabric to
	// come up before subscribing.
	unsubscribe, err := b.subscribeWithRetry(ctx, func(data []byte) {
		event, err := proto.UnmarshalEvent(data)
		if err != nil {
			logger.Errorf("dropping malformed event: %v", err)
			return
		}
		if err := event.Validate(); err != nil {
			logger.Errorf("dropping invalid %s event: %v", event.Kind, err)
			return
		}
		if err := b.dispatcher.Dispatch(event); err != nil {
			logger.Errorf("dispatching %s event: %v", event.Kind, err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", EventSubject, err)
	}
	defer unsubscribe()

	logger.Infof("event bridge consuming %s", EventSubject)

	<-ctx.Done()
	return nil
}

func (b *EventBridge) subscribeWithRetry(ctx context.Context, handler func(data []byte)) (func(), error) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		unsubscribe, err := b.server.Subscribe(EventSubject, handler)
		if err == nil {
			return unsubscribe, nil
		}

		select {
		case <-ctx.Done():
			return nil, err
		case <-ticker.C:
		}
	}
}
