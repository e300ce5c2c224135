package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/maefbyyas/inventory-engine/internal/application/dto"
	"github.com/maefbyyas/inventory-engine/internal/application/inventory"
	"github.com/nats-io/nats.go"
)

var _ inventory.MovementPublisher = (*NATSPublisher)(nil)

// Connect abre la conexión NATS con reconexión automática.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("conectar NATS: %w", err)
	}
	return conn, nil
}

// NATSPublisher publica eventos de movimiento confirmados en NATS, un subject
// por tipo: inventory.movement.<type>. Los consumidores (analítica, alertas
// de stock bajo, sincronización de catálogo) se suscriben por patrón.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher construye el publicador sobre una conexión existente.
func NewNATSPublisher(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

// Publish serializa el evento y lo publica. El caller decide qué hacer ante un
// fallo; el motor lo trata como best-effort.
func (p *NATSPublisher) Publish(_ context.Context, event dto.MovementEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serializar evento de movimiento: %w", err)
	}
	subject := "inventory.movement." + event.Type
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publicar en %s: %w", subject, err)
	}
	return nil
}
