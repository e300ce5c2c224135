package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de stock derivados, en orden de prioridad de evaluación.
const (
	StockStatusOutOfStock = "out_of_stock"
	StockStatusCritical   = "critical"
	StockStatusLow        = "low"
	StockStatusAvailable  = "available"
)

// StockRecord representa el stock de un producto o variante en una ubicación.
// Registro plano materializado: sin relaciones bidireccionales ni cargas
// perezosas; los campos derivados se calculan con funciones puras.
type StockRecord struct {
	ID        string
	ProductID string
	VariantID string // vacío = registro a nivel de producto
	Location  string // por defecto "main"

	OnHand    int64 // unidades físicas presentes
	Reserved  int64 // unidades retenidas por reservas activas
	Committed int64 // unidades en preparación (picking/packing)

	LowStockThreshold      int64
	CriticalStockThreshold int64

	UnitCost decimal.Decimal // costo promedio ponderado por unidad

	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastMovementAt *time.Time
}

// Available devuelve la cantidad vendible: on_hand - reserved - committed.
func (s *StockRecord) Available() int64 {
	return s.OnHand - s.Reserved - s.Committed
}

// CanFulfill indica si se puede satisfacer una demanda de la cantidad dada.
func (s *StockRecord) CanFulfill(quantity int64) bool {
	return s.Available() >= quantity
}

// IsOutOfStock indica rupturas de stock (disponible <= 0).
func (s *StockRecord) IsOutOfStock() bool {
	return s.Available() <= 0
}

// IsCriticalStock indica si el disponible está en o bajo el umbral crítico.
func (s *StockRecord) IsCriticalStock() bool {
	return s.Available() <= s.CriticalStockThreshold
}

// IsLowStock indica si el disponible está en o bajo el umbral de stock bajo.
func (s *StockRecord) IsLowStock() bool {
	return s.Available() <= s.LowStockThreshold
}

// StockStatus devuelve el estado derivado evaluando en orden:
// out_of_stock, critical, low, available.
func (s *StockRecord) StockStatus() string {
	switch {
	case s.IsOutOfStock():
		return StockStatusOutOfStock
	case s.IsCriticalStock():
		return StockStatusCritical
	case s.IsLowStock():
		return StockStatusLow
	default:
		return StockStatusAvailable
	}
}

// TotalValue valoriza el stock físico al costo promedio actual.
func (s *StockRecord) TotalValue() decimal.Decimal {
	return decimal.NewFromInt(s.OnHand).Mul(s.UnitCost)
}

// CheckInvariants valida las invariantes de cantidades. Devuelve una
// descripción de la primera violación encontrada, o "" si todas se cumplen.
// Invariantes: on_hand >= 0, reserved >= 0, committed >= 0, reserved <= on_hand.
func (s *StockRecord) CheckInvariants() string {
	switch {
	case s.OnHand < 0:
		return "on_hand negativo"
	case s.Reserved < 0:
		return "reserved negativo"
	case s.Committed < 0:
		return "committed negativo"
	case s.Reserved > s.OnHand:
		return "reserved mayor que on_hand"
	}
	return ""
}
