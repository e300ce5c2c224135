package repository

import (
	"context"

	"github.com/maefbyyas/inventory-engine/internal/domain/entity"
)

// StockRecordRepository define el puerto de persistencia para registros de stock.
// Las mutaciones se usan dentro de transacciones para garantizar consistencia.
type StockRecordRepository interface {
	Get(ctx context.Context, stockID string) (*entity.StockRecord, error)
	// GetForUpdate bloquea la fila para update (SELECT FOR UPDATE): serializa
	// todas las mutaciones sobre un mismo registro.
	GetForUpdate(ctx context.Context, stockID string) (*entity.StockRecord, error)
	Create(ctx context.Context, record *entity.StockRecord) error
	Update(ctx context.Context, record *entity.StockRecord) error
	// Resolve traduce (producto, variante) al ID de registro de stock canónico.
	// Con variante: prefiere el registro propio de la variante y cae al registro
	// a nivel de producto solo si la variante no tiene; nunca suma ambos.
	Resolve(ctx context.Context, productID, variantID string) (string, error)
}
