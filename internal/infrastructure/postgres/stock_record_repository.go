package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/maefbyyas/inventory-engine/internal/domain"
	"github.com/maefbyyas/inventory-engine/internal/domain/entity"
	"github.com/maefbyyas/inventory-engine/internal/domain/repository"
)

var _ repository.StockRecordRepository = (*StockRecordRepo)(nil)

// StockRecordRepo implementación de StockRecordRepository sobre PostgreSQL
// (usable con pool o tx).
type StockRecordRepo struct {
	q Querier
}

// NewStockRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockRecordRepository(q Querier) *StockRecordRepo {
	return &StockRecordRepo{q: q}
}

const stockRecordColumns = `
	id, product_id, variant_id, location,
	qty_on_hand, qty_reserved, qty_committed,
	low_stock_threshold, critical_stock_threshold,
	unit_cost, created_at, updated_at, last_movement_at`

// Get obtiene un registro de stock por ID.
func (r *StockRecordRepo) Get(ctx context.Context, stockID string) (*entity.StockRecord, error) {
	query := `SELECT ` + stockRecordColumns + ` FROM inventory WHERE id = $1`
	return r.scanOne(r.q.QueryRow(ctx, query, stockID), "get stock record")
}

// GetForUpdate obtiene el registro y bloquea la fila (SELECT FOR UPDATE):
// serializa todas las mutaciones concurrentes sobre el mismo registro.
func (r *StockRecordRepo) GetForUpdate(ctx context.Context, stockID string) (*entity.StockRecord, error) {
	query := `SELECT ` + stockRecordColumns + ` FROM inventory WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRow(ctx, query, stockID), "get stock record for update")
}

// Create persiste un registro de stock nuevo.
func (r *StockRecordRepo) Create(ctx context.Context, record *entity.StockRecord) error {
	query := `
		INSERT INTO inventory (
			id, product_id, variant_id, location,
			qty_on_hand, qty_reserved, qty_committed,
			low_stock_threshold, critical_stock_threshold,
			unit_cost, created_at, updated_at, last_movement_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		record.ID, record.ProductID, nullable(record.VariantID), record.Location,
		record.OnHand, record.Reserved, record.Committed,
		record.LowStockThreshold, record.CriticalStockThreshold,
		record.UnitCost, record.CreatedAt, record.UpdatedAt, record.LastMovementAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: registro de stock duplicado", domain.ErrInvalidInput)
		}
		return fmt.Errorf("insert stock record: %w", err)
	}
	return nil
}

// Update persiste las cantidades, costo y timestamps de un registro existente.
// Los checks de la tabla (qty_on_hand >= 0, qty_reserved <= qty_on_hand)
// respaldan en BD las invariantes que el dominio ya validó.
func (r *StockRecordRepo) Update(ctx context.Context, record *entity.StockRecord) error {
	query := `
		UPDATE inventory SET
			qty_on_hand = $2, qty_reserved = $3, qty_committed = $4,
			low_stock_threshold = $5, critical_stock_threshold = $6,
			unit_cost = $7, updated_at = $8, last_movement_at = $9
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		record.ID,
		record.OnHand, record.Reserved, record.Committed,
		record.LowStockThreshold, record.CriticalStockThreshold,
		record.UnitCost, record.UpdatedAt, record.LastMovementAt,
	)
	if err != nil {
		return fmt.Errorf("update stock record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Resolve traduce (producto, variante) al ID del registro canónico.
// Con variante: primero el registro propio de la variante; si no existe, el
// registro a nivel de producto. Nunca se suman ambos.
func (r *StockRecordRepo) Resolve(ctx context.Context, productID, variantID string) (string, error) {
	if variantID != "" {
		var id string
		err := r.q.QueryRow(ctx,
			`SELECT id FROM inventory WHERE product_id = $1 AND variant_id = $2 ORDER BY location LIMIT 1`,
			productID, variantID,
		).Scan(&id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("resolve stock por variante: %w", err)
		}
		// La variante no tiene registro propio: cae al nivel de producto
	}

	var id string
	err := r.q.QueryRow(ctx,
		`SELECT id FROM inventory WHERE product_id = $1 AND variant_id IS NULL ORDER BY location LIMIT 1`,
		productID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("resolve stock por producto: %w", err)
	}
	return id, nil
}

func (r *StockRecordRepo) scanOne(row pgx.Row, op string) (*entity.StockRecord, error) {
	var s entity.StockRecord
	var variantID *string
	err := row.Scan(
		&s.ID, &s.ProductID, &variantID, &s.Location,
		&s.OnHand, &s.Reserved, &s.Committed,
		&s.LowStockThreshold, &s.CriticalStockThreshold,
		&s.UnitCost, &s.CreatedAt, &s.UpdatedAt, &s.LastMovementAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if variantID != nil {
		s.VariantID = *variantID
	}
	return &s, nil
}

// nullable convierte "" a NULL para columnas opcionales.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
