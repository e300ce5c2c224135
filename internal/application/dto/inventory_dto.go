package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// Availability snapshot de disponibilidad de un registro de stock.
// Lectura sin efectos; puede estar momentáneamente desactualizada bajo
// escritores concurrentes (aceptable para mostrar; reservar revalida).
type Availability struct {
	StockID         string    `json:"stock_id"`
	OnHand          int64     `json:"on_hand"`
	Reserved        int64     `json:"reserved"`
	Committed       int64     `json:"committed"`
	Available       int64     `json:"available"`
	Status          string    `json:"status"`
	IsLowStock      bool      `json:"is_low_stock"`
	IsCriticalStock bool      `json:"is_critical_stock"`
	IsOutOfStock    bool      `json:"is_out_of_stock"`
	AsOf            time.Time `json:"as_of"`
}

// MovementEvent evento publicado tras confirmar un movimiento de stock.
// TotalCost va valorizado en Currency (la moneda configurada de la tienda).
type MovementEvent struct {
	MovementID     string          `json:"movement_id"`
	StockID        string          `json:"stock_id"`
	Type           string          `json:"type"`
	Quantity       int64           `json:"quantity"`
	QuantityBefore int64           `json:"quantity_before"`
	QuantityAfter  int64           `json:"quantity_after"`
	Reference      string          `json:"reference,omitempty"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	Currency       string          `json:"currency"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

// SweepReport resultado agregado de una pasada del barrido de expiración.
type SweepReport struct {
	Scanned  int `json:"scanned"`
	Released int `json:"released"`
	Failed   int `json:"failed"`
}
