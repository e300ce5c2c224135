package inventory

import (
	"context"

	"github.com/maefbyyas/inventory-engine/internal/application/dto"
	"github.com/maefbyyas/inventory-engine/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad: cada mutación del motor
// (adjust, reserve, release, fulfill) ocurre completa o no ocurre.
// La implementación traduce fallos de serialización/deadlock a
// domain.ErrConcurrencyConflict para que el caller reintente.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stockRepo repository.StockRecordRepository,
		movementRepo repository.MovementRepository,
		reservationRepo repository.ReservationRepository,
	) error) error
}

// AvailabilityCache caché de snapshots de disponibilidad (cache-aside).
// Get devuelve found=false tanto en miss como en error de backend: el caché
// nunca bloquea una lectura.
type AvailabilityCache interface {
	Get(ctx context.Context, stockID string) (dto.Availability, bool)
	Set(ctx context.Context, snapshot dto.Availability)
	Invalidate(ctx context.Context, stockID string)
}

// MovementPublisher publica eventos de movimiento confirmados. Best-effort:
// un fallo de publicación se registra pero no revierte la mutación.
type MovementPublisher interface {
	Publish(ctx context.Context, event dto.MovementEvent) error
}

// NopCache implementación nula de AvailabilityCache (caché desactivado).
type NopCache struct{}

func (NopCache) Get(context.Context, string) (dto.Availability, bool) { return dto.Availability{}, false }
func (NopCache) Set(context.Context, dto.Availability)                {}
func (NopCache) Invalidate(context.Context, string)                   {}

// NopPublisher implementación nula de MovementPublisher (eventos desactivados).
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, dto.MovementEvent) error { return nil }
