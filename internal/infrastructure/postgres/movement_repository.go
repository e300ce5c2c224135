package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/maefbyyas/inventory-engine/internal/domain/entity"
	"github.com/maefbyyas/inventory-engine/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo implementación sobre PostgreSQL del historial de movimientos.
// Solo INSERT y SELECT: la tabla es append-only por contrato.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `
	id, stock_id, movement_type, quantity, quantity_before, quantity_after,
	reason, reference, unit_cost, total_cost, created_at`

// Create persiste un movimiento de stock.
func (r *MovementRepo) Create(ctx context.Context, movement *entity.Movement) error {
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movement (id, stock_id, movement_type, quantity, quantity_before, quantity_after, reason, reference, unit_cost, total_cost, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		movement.ID, movement.StockID, movement.Type,
		movement.Quantity, movement.QuantityBefore, movement.QuantityAfter,
		nullable(movement.Reason), nullable(movement.Reference),
		movement.UnitCost, movement.TotalCost, movement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// ListByStock lista los movimientos de un registro, del más reciente al más antiguo.
func (r *MovementRepo) ListByStock(ctx context.Context, stockID string, limit, offset int) ([]*entity.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movement WHERE stock_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, stockID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	return scanMovements(rows)
}

// ListByReference lista los movimientos asociados a una referencia externa
// (orden o carrito), en orden cronológico.
func (r *MovementRepo) ListByReference(ctx context.Context, reference string) ([]*entity.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movement WHERE reference = $1
		ORDER BY created_at ASC, id ASC`
	rows, err := r.q.Query(ctx, query, reference)
	if err != nil {
		return nil, fmt.Errorf("list movements by reference: %w", err)
	}
	defer rows.Close()
	return scanMovements(rows)
}

func scanMovements(rows pgx.Rows) ([]*entity.Movement, error) {
	var movements []*entity.Movement
	for rows.Next() {
		var m entity.Movement
		var reason, reference *string
		if err := rows.Scan(
			&m.ID, &m.StockID, &m.Type,
			&m.Quantity, &m.QuantityBefore, &m.QuantityAfter,
			&reason, &reference, &m.UnitCost, &m.TotalCost, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		if reason != nil {
			m.Reason = *reason
		}
		if reference != nil {
			m.Reference = *reference
		}
		movements = append(movements, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock movements: %w", err)
	}
	return movements, nil
}
