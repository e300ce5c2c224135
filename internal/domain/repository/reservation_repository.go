package repository

import (
	"context"
	"time"

	"github.com/maefbyyas/inventory-engine/internal/domain/entity"
)

// ReservationRepository define el puerto de persistencia para reservas.
type ReservationRepository interface {
	Create(ctx context.Context, reservation *entity.Reservation) error
	Get(ctx context.Context, reservationID string) (*entity.Reservation, error)
	// GetForUpdate bloquea la fila de la reserva (SELECT FOR UPDATE) para que
	// release/fulfill concurrentes sobre la misma reserva se serialicen.
	GetForUpdate(ctx context.Context, reservationID string) (*entity.Reservation, error)
	Update(ctx context.Context, reservation *entity.Reservation) error
	// ListExpired devuelve IDs de reservas activas con expires_at < now,
	// limitadas a un lote; alimenta el barrido de expiración.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]string, error)
}
