package repository

import (
	"context"

	"github.com/maefbyyas/inventory-engine/internal/domain/entity"
)

// MovementRepository define el puerto de persistencia para el historial de
// movimientos. Solo inserta y lee: el historial es append-only por contrato,
// nunca se actualiza ni se borra.
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	ListByStock(ctx context.Context, stockID string, limit, offset int) ([]*entity.Movement, error)
	ListByReference(ctx context.Context, reference string) ([]*entity.Movement, error)
}
