package entity_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/maefbyyas/inventory-engine/internal/domain/entity"
)

func TestStockRecord_Available(t *testing.T) {
	record := &entity.StockRecord{OnHand: 10, Reserved: 3, Committed: 2}
	assert.Equal(t, int64(5), record.Available())
}

func TestStockRecord_CanFulfill(t *testing.T) {
	record := &entity.StockRecord{OnHand: 10, Reserved: 7}

	assert.True(t, record.CanFulfill(3))
	assert.False(t, record.CanFulfill(4))
}

// TestStockRecord_StockStatus valida la prioridad de evaluación:
// out_of_stock > critical > low > available.
func TestStockRecord_StockStatus(t *testing.T) {
	tests := []struct {
		name     string
		onHand   int64
		reserved int64
		want     string
	}{
		{"disponible", 20, 0, entity.StockStatusAvailable},
		{"bajo en el umbral", 5, 0, entity.StockStatusLow},
		{"critico en el umbral", 1, 0, entity.StockStatusCritical},
		{"sin stock", 0, 0, entity.StockStatusOutOfStock},
		{"todo reservado cuenta como sin stock", 10, 10, entity.StockStatusOutOfStock},
		{"reservas empujan a bajo", 8, 4, entity.StockStatusLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := &entity.StockRecord{
				OnHand:                 tt.onHand,
				Reserved:               tt.reserved,
				LowStockThreshold:      5,
				CriticalStockThreshold: 1,
			}
			assert.Equal(t, tt.want, record.StockStatus())
		})
	}
}

func TestStockRecord_CheckInvariants(t *testing.T) {
	tests := []struct {
		name      string
		record    entity.StockRecord
		wantError bool
	}{
		{"valido", entity.StockRecord{OnHand: 10, Reserved: 5, Committed: 2}, false},
		{"valido en el limite", entity.StockRecord{OnHand: 5, Reserved: 5}, false},
		{"on_hand negativo", entity.StockRecord{OnHand: -1}, true},
		{"reserved negativo", entity.StockRecord{OnHand: 3, Reserved: -2}, true},
		{"committed negativo", entity.StockRecord{OnHand: 3, Committed: -1}, true},
		{"reserved mayor que on_hand", entity.StockRecord{OnHand: 3, Reserved: 4}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violation := tt.record.CheckInvariants()
			if tt.wantError {
				assert.NotEmpty(t, violation)
			} else {
				assert.Empty(t, violation)
			}
		})
	}
}

func TestStockRecord_TotalValue(t *testing.T) {
	record := &entity.StockRecord{
		OnHand:   12,
		UnitCost: decimal.NewFromFloat(2.50),
	}
	assert.True(t, decimal.NewFromInt(30).Equal(record.TotalValue()))
}

func TestMovement_Direction(t *testing.T) {
	inbound := &entity.Movement{Quantity: 5}
	outbound := &entity.Movement{Quantity: -5}
	hold := &entity.Movement{Quantity: 0}

	assert.True(t, inbound.IsInbound())
	assert.False(t, inbound.IsOutbound())
	assert.True(t, outbound.IsOutbound())
	assert.False(t, hold.IsInbound())
	assert.False(t, hold.IsOutbound())
}

func TestValidAdjustmentType(t *testing.T) {
	assert.True(t, entity.ValidAdjustmentType(entity.MovementTypeRestock))
	assert.True(t, entity.ValidAdjustmentType(entity.MovementTypeDamaged))

	// Los tipos de reserva son exclusivos del motor de reservas
	assert.False(t, entity.ValidAdjustmentType(entity.MovementTypeReserved))
	assert.False(t, entity.ValidAdjustmentType(entity.MovementTypeUnreserved))
	assert.False(t, entity.ValidAdjustmentType("otro"))
}
