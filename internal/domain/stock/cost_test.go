package stock_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/maefbyyas/inventory-engine/internal/domain/stock"
)

func TestAverageCost(t *testing.T) {
	tests := []struct {
		name        string
		onHand      int64
		currentCost string
		qtyIn       int64
		inCost      string
		want        string
	}{
		{"promedio ponderado simple", 10, "100", 10, "200", "150"},
		{"entrada a stock vacio adopta el costo de entrada", 0, "0", 5, "80", "80"},
		{"entrada pequena mueve poco el promedio", 90, "10", 10, "20", "11"},
		{"sin unidades el costo es cero", 0, "50", 0, "70", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stock.AverageCost(
				tt.onHand, decimal.RequireFromString(tt.currentCost),
				tt.qtyIn, decimal.RequireFromString(tt.inCost),
			)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got),
				"esperado %s, obtenido %s", tt.want, got)
		})
	}
}
