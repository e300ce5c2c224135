package entity

import "time"

// Estados de una reserva. Active transiciona exactamente una vez a Released o
// Fulfilled; los estados terminales son inmutables.
const (
	ReservationStatusActive    = "active"
	ReservationStatusReleased  = "released"
	ReservationStatusFulfilled = "fulfilled"
)

// Reservation es una retención temporal de stock disponible, atada a una
// referencia externa (carrito u orden). Referencia a su StockRecord solo por
// identificador.
type Reservation struct {
	ID        string
	StockID   string
	Quantity  int64
	Reference string
	Status    string

	ExpiresAt   *time.Time
	CreatedAt   time.Time
	ReleasedAt  *time.Time
	FulfilledAt *time.Time
}

// IsActive indica si la reserva sigue vigente (no terminal).
func (r *Reservation) IsActive() bool {
	return r.Status == ReservationStatusActive
}

// IsTerminal indica si la reserva alcanzó un estado final.
func (r *Reservation) IsTerminal() bool {
	return r.Status == ReservationStatusReleased || r.Status == ReservationStatusFulfilled
}

// IsExpired indica si la reserva venció respecto a now. Sin ExpiresAt la
// reserva no vence.
func (r *Reservation) IsExpired(now time.Time) bool {
	return r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}

// ShouldBeReleased indica si el barrido de expiración debe liberarla.
func (r *Reservation) ShouldBeReleased(now time.Time) bool {
	return r.IsActive() && r.IsExpired(now)
}
