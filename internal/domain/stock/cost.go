package stock

import "github.com/shopspring/decimal"

// AverageCost implementa la lógica de costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((OnHand * CostoActual) + (CantEntrada * CostoEntrada)) / (OnHand + CantEntrada)
func AverageCost(onHand int64, currentCost decimal.Decimal, qtyIn int64, inCost decimal.Decimal) decimal.Decimal {
	current := decimal.NewFromInt(onHand)
	incoming := decimal.NewFromInt(qtyIn)
	sum := current.Add(incoming)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := current.Mul(currentCost).Add(incoming.Mul(inCost))
	return num.Div(sum)
}
