package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de stock.
const (
	MovementTypeRestock    = "restock"    // reaprovisionamiento
	MovementTypeSale       = "sale"       // venta
	MovementTypeReturn     = "return"     // devolución
	MovementTypeDamaged    = "damaged"    // producto dañado
	MovementTypeAdjustment = "adjustment" // ajuste manual
	MovementTypeReserved   = "reserved"   // creación de reserva
	MovementTypeUnreserved = "unreserved" // liberación de reserva
	MovementTypeTransfer   = "transfer"   // traslado entre ubicaciones
)

// Movement es una entrada inmutable del historial de stock. Solo se inserta:
// nunca se actualiza ni se borra después de creada (es la pista de auditoría).
type Movement struct {
	ID      string
	StockID string
	Type    string

	Quantity       int64 // con signo: positivo entra, negativo sale
	QuantityBefore int64 // on_hand antes del movimiento
	QuantityAfter  int64 // on_hand después del movimiento

	Reason    string
	Reference string // id externo: orden, carrito, nota de ajuste

	UnitCost  decimal.Decimal
	TotalCost decimal.Decimal

	CreatedAt time.Time
}

// IsInbound indica un movimiento entrante (aumenta el stock).
func (m *Movement) IsInbound() bool {
	return m.Quantity > 0
}

// IsOutbound indica un movimiento saliente (disminuye el stock).
func (m *Movement) IsOutbound() bool {
	return m.Quantity < 0
}

// ValidAdjustmentType indica si el tipo puede usarse en un ajuste manual del
// libro de stock. Los tipos reserved/unreserved los escribe solo el motor de
// reservas.
func ValidAdjustmentType(movementType string) bool {
	switch movementType {
	case MovementTypeRestock, MovementTypeSale, MovementTypeReturn,
		MovementTypeDamaged, MovementTypeAdjustment, MovementTypeTransfer:
		return true
	}
	return false
}
