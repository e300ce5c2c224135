package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/maefbyyas/inventory-engine/internal/domain"
	"github.com/maefbyyas/inventory-engine/internal/domain/entity"
	"github.com/maefbyyas/inventory-engine/internal/domain/repository"
)

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo implementación de ReservationRepository sobre PostgreSQL
// (usable con pool o tx).
type ReservationRepo struct {
	q Querier
}

// NewReservationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReservationRepository(q Querier) *ReservationRepo {
	return &ReservationRepo{q: q}
}

const reservationColumns = `
	id, stock_id, quantity, reference, status,
	expires_at, created_at, released_at, fulfilled_at`

// Create persiste una reserva nueva.
func (r *ReservationRepo) Create(ctx context.Context, reservation *entity.Reservation) error {
	query := `
		INSERT INTO stock_reservation (id, stock_id, quantity, reference, status, expires_at, created_at, released_at, fulfilled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		reservation.ID, reservation.StockID, reservation.Quantity,
		nullable(reservation.Reference), reservation.Status,
		reservation.ExpiresAt, reservation.CreatedAt,
		reservation.ReleasedAt, reservation.FulfilledAt,
	)
	if err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

// Get obtiene una reserva por ID.
func (r *ReservationRepo) Get(ctx context.Context, reservationID string) (*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM stock_reservation WHERE id = $1`
	return r.scanOne(r.q.QueryRow(ctx, query, reservationID), "get reservation")
}

// GetForUpdate obtiene la reserva y bloquea su fila (SELECT FOR UPDATE):
// release/fulfill concurrentes sobre la misma reserva se serializan.
func (r *ReservationRepo) GetForUpdate(ctx context.Context, reservationID string) (*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM stock_reservation WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRow(ctx, query, reservationID), "get reservation for update")
}

// Update persiste el estado y timestamps de transición de una reserva.
// Cantidad, referencia y stock_id son inmutables después de crear.
func (r *ReservationRepo) Update(ctx context.Context, reservation *entity.Reservation) error {
	query := `
		UPDATE stock_reservation SET
			status = $2, expires_at = $3, released_at = $4, fulfilled_at = $5
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		reservation.ID, reservation.Status,
		reservation.ExpiresAt, reservation.ReleasedAt, reservation.FulfilledAt,
	)
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

// ListExpired devuelve IDs de reservas activas vencidas respecto a now, en
// orden de vencimiento, limitadas a un lote.
func (r *ReservationRepo) ListExpired(ctx context.Context, now time.Time, limit int) ([]string, error) {
	query := `
		SELECT id FROM stock_reservation
		WHERE status = $1 AND expires_at IS NOT NULL AND expires_at < $2
		ORDER BY expires_at ASC
		LIMIT $3`
	rows, err := r.q.Query(ctx, query, entity.ReservationStatusActive, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired reservations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan reservation id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired reservations: %w", err)
	}
	return ids, nil
}

func (r *ReservationRepo) scanOne(row pgx.Row, op string) (*entity.Reservation, error) {
	var res entity.Reservation
	var reference *string
	err := row.Scan(
		&res.ID, &res.StockID, &res.Quantity, &reference, &res.Status,
		&res.ExpiresAt, &res.CreatedAt, &res.ReleasedAt, &res.FulfilledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReservationNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if reference != nil {
		res.Reference = *reference
	}
	return &res, nil
}
