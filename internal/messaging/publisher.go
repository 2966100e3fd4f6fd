package messaging

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pixil98/go-dungeon/internal/proto"
)

// Publisher delivers outbound packets onto per-client NATS subjects.
// Protocol front ends subscribe to their client's subject and forward
// whatever arrives down the wire, so the subject acts as the client's
// send queue.
type Publisher struct {
	server *NatsServer
}

// NewPublisher wraps a NatsServer for per-client packet delivery.
func NewPublisher(server *NatsServer) *Publisher {
	return &Publisher{server: server}
}

// Send marshals one packet and publishes it to the client's subject.
func (p *Publisher) Send(packet proto.Packet, client uuid.UUID) error {
	data, err := proto.MarshalPacket(packet)
	if err != nil {
		return fmt.Errorf("marshaling %s packet: %w", packet.Kind(), err)
	}
	if err := p.server.Publish(ClientSubject(client.String()), data); err != nil {
		return fmt.Errorf("publishing to client %s: %w", client, err)
	}
	return nil
}
