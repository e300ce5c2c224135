package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/maefbyyas/inventory-engine/internal/domain"
	"github.com/maefbyyas/inventory-engine/internal/domain/entity"
	"github.com/maefbyyas/inventory-engine/internal/domain/repository"
	"github.com/maefbyyas/inventory-engine/pkg/config"
	"github.com/maefbyyas/inventory-engine/pkg/logger"
)

// ReservationUseCase es la máquina de estados de reservas: crea retenciones
// temporales contra un registro de stock, y las libera o las convierte en
// venta. Cada transición corre en su propia transacción con la fila del
// registro bloqueada, de modo que dos reservas concurrentes cuya suma exceda
// el disponible nunca tienen éxito ambas.
type ReservationUseCase struct {
	txRunner  TxRunner
	cache     AvailabilityCache
	publisher MovementPublisher
	log       *logger.Logger
	cfg       config.InventoryConfig
}

// NewReservationUseCase construye el caso de uso.
func NewReservationUseCase(
	txRunner TxRunner,
	cache AvailabilityCache,
	publisher MovementPublisher,
	log *logger.Logger,
	cfg config.InventoryConfig,
) *ReservationUseCase {
	return &ReservationUseCase{
		txRunner:  txRunner,
		cache:     cache,
		publisher: publisher,
		log:       log,
		cfg:       cfg,
	}
}

// ReserveInput entrada para crear una reserva. TTL <= 0 usa el TTL por defecto
// de la configuración.
type ReserveInput struct {
	StockID   string
	Quantity  int64
	Reference string
	TTL       time.Duration
}

// Reserve revalida el disponible contra el estado actual (nunca contra un
// snapshot previo del caller) y, si alcanza, incrementa reserved, crea la
// reserva activa y deja un movimiento tipo reserved con cantidad 0 que
// documenta la retención. domain.ErrOutOfStock es el resultado de negocio
// esperado cuando no alcanza; no cambia ningún estado.
func (uc *ReservationUseCase) Reserve(ctx context.Context, input ReserveInput) (*entity.Reservation, error) {
	if input.StockID == "" || input.Quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	ttl := input.TTL
	if ttl <= 0 {
		ttl = uc.cfg.DefaultReservationTTL
	}

	var (
		reservation *entity.Reservation
		movement    *entity.Movement
	)
	err := runSerialized(ctx, uc.txRunner, uc.cfg.MaxTxRetries, func(
		stockRepo repository.StockRecordRepository,
		movementRepo repository.MovementRepository,
		reservationRepo repository.ReservationRepository,
	) error {
		record, err := stockRepo.GetForUpdate(ctx, input.StockID)
		if err != nil {
			return err
		}
		if !record.CanFulfill(input.Quantity) {
			return fmt.Errorf("%w: disponibles %d, solicitadas %d",
				domain.ErrOutOfStock, record.Available(), input.Quantity)
		}

		now := time.Now()
		expiresAt := now.Add(ttl)

		record.Reserved += input.Quantity
		if violation := record.CheckInvariants(); violation != "" {
			return fmt.Errorf("%w: %s", domain.ErrInvariantViolation, violation)
		}
		record.LastMovementAt = &now
		record.UpdatedAt = now
		if err := stockRepo.Update(ctx, record); err != nil {
			return err
		}

		reservation = &entity.Reservation{
			ID:        uuid.New().String(),
			StockID:   record.ID,
			Quantity:  input.Quantity,
			Reference: input.Reference,
			Status:    entity.ReservationStatusActive,
			ExpiresAt: &expiresAt,
			CreatedAt: now,
		}
		if err := reservationRepo.Create(ctx, reservation); err != nil {
			return err
		}

		// Movimiento centinela: cantidad 0, documenta la retención sin mover on_hand
		movement = uc.holdMovement(record, entity.MovementTypeReserved,
			fmt.Sprintf("reserva de %d unidades", input.Quantity), input.Reference, now)
		return movementRepo.Create(ctx, movement)
	})
	if err != nil {
		return nil, err
	}

	uc.afterMovement(ctx, movement)
	return reservation, nil
}

// Release libera una reserva. Idempotente: sobre una reserva ya terminal no
// hace nada y no devuelve error, para tolerar reintentos de upstream.
// Un ID desconocido devuelve domain.ErrReservationNotFound (no fatal para
// flujos que barren lotes).
func (uc *ReservationUseCase) Release(ctx context.Context, reservationID string) error {
	if reservationID == "" {
		return domain.ErrInvalidInput
	}

	var movement *entity.Movement
	err := runSerialized(ctx, uc.txRunner, uc.cfg.MaxTxRetries, func(
		stockRepo repository.StockRecordRepository,
		movementRepo repository.MovementRepository,
		reservationRepo repository.ReservationRepository,
	) error {
		reservation, err := reservationRepo.GetForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if reservation.IsTerminal() {
			// no-op por contrato
			return nil
		}

		record, err := stockRepo.GetForUpdate(ctx, reservation.StockID)
		if err != nil {
			return err
		}

		now := time.Now()
		record.Reserved -= reservation.Quantity
		if violation := record.CheckInvariants(); violation != "" {
			return fmt.Errorf("%w: %s", domain.ErrInvariantViolation, violation)
		}
		record.LastMovementAt = &now
		record.UpdatedAt = now
		if err := stockRepo.Update(ctx, record); err != nil {
			return err
		}

		reservation.Status = entity.ReservationStatusReleased
		reservation.ReleasedAt = &now
		if err := reservationRepo.Update(ctx, reservation); err != nil {
			return err
		}

		movement = uc.holdMovement(record, entity.MovementTypeUnreserved,
			fmt.Sprintf("liberación de %d unidades", reservation.Quantity), reservation.Reference, now)
		return movementRepo.Create(ctx, movement)
	})
	if err != nil {
		return err
	}

	if movement != nil {
		uc.afterMovement(ctx, movement)
	}
	return nil
}

// Fulfill convierte una reserva activa en venta: debita reserved y on_hand por
// la cantidad reservada y deja un movimiento sale con cantidad negativa.
// Sobre una reserva terminal devuelve domain.ErrReservationNotActive.
func (uc *ReservationUseCase) Fulfill(ctx context.Context, reservationID string) error {
	if reservationID == "" {
		return domain.ErrInvalidInput
	}

	var movement *entity.Movement
	err := runSerialized(ctx, uc.txRunner, uc.cfg.MaxTxRetries, func(
		stockRepo repository.StockRecordRepository,
		movementRepo repository.MovementRepository,
		reservationRepo repository.ReservationRepository,
	) error {
		reservation, err := reservationRepo.GetForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if reservation.IsTerminal() {
			return domain.ErrReservationNotActive
		}

		record, err := stockRepo.GetForUpdate(ctx, reservation.StockID)
		if err != nil {
			return err
		}

		now := time.Now()
		before := record.OnHand
		record.Reserved -= reservation.Quantity
		record.OnHand -= reservation.Quantity
		if violation := record.CheckInvariants(); violation != "" {
			return fmt.Errorf("%w: %s", domain.ErrInvariantViolation, violation)
		}
		record.LastMovementAt = &now
		record.UpdatedAt = now
		if err := stockRepo.Update(ctx, record); err != nil {
			return err
		}

		reservation.Status = entity.ReservationStatusFulfilled
		reservation.FulfilledAt = &now
		if err := reservationRepo.Update(ctx, reservation); err != nil {
			return err
		}

		movement = &entity.Movement{
			ID:             uuid.New().String(),
			StockID:        record.ID,
			Type:           entity.MovementTypeSale,
			Quantity:       -reservation.Quantity,
			QuantityBefore: before,
			QuantityAfter:  record.OnHand,
			Reason:         fmt.Sprintf("venta de %d unidades", reservation.Quantity),
			Reference:      reservation.Reference,
			UnitCost:       record.UnitCost,
			TotalCost:      decimal.NewFromInt(-reservation.Quantity).Mul(record.UnitCost),
			CreatedAt:      now,
		}
		return movementRepo.Create(ctx, movement)
	})
	if err != nil {
		return err
	}

	uc.afterMovement(ctx, movement)
	return nil
}

// OrderItem una línea de una orden multi-ítem.
type OrderItem struct {
	StockID  string
	Quantity int64
}

// ReserveOrder reserva varias líneas de una orden, un registro a la vez (no
// existe transacción cruzada entre registros). Si una línea falla, libera las
// reservas ya creadas para la misma orden (rollback compensatorio) y devuelve
// el error de la línea que falló.
func (uc *ReservationUseCase) ReserveOrder(ctx context.Context, reference string, ttl time.Duration, items []OrderItem) ([]*entity.Reservation, error) {
	if len(items) == 0 {
		return nil, domain.ErrInvalidInput
	}

	reserved := make([]*entity.Reservation, 0, len(items))
	for i, item := range items {
		reservation, err := uc.Reserve(ctx, ReserveInput{
			StockID:   item.StockID,
			Quantity:  item.Quantity,
			Reference: reference,
			TTL:       ttl,
		})
		if err != nil {
			uc.compensate(ctx, reference, reserved)
			return nil, fmt.Errorf("reservar línea %d (stock %s): %w", i+1, item.StockID, err)
		}
		reserved = append(reserved, reservation)
	}
	return reserved, nil
}

// compensate libera las reservas ya creadas de una orden que falló a medias.
func (uc *ReservationUseCase) compensate(ctx context.Context, reference string, reservations []*entity.Reservation) {
	for _, reservation := range reservations {
		if err := uc.Release(ctx, reservation.ID); err != nil && !errors.Is(err, domain.ErrReservationNotFound) {
			uc.log.Error().
				Err(err).
				Str("reservation_id", reservation.ID).
				Str("reference", reference).
				Msg("no se pudo compensar reserva de orden fallida")
		}
	}
}

// holdMovement arma el movimiento centinela de reserva/liberación: cantidad 0,
// on_hand intacto antes y después.
func (uc *ReservationUseCase) holdMovement(record *entity.StockRecord, movementType, reason, reference string, now time.Time) *entity.Movement {
	return &entity.Movement{
		ID:             uuid.New().String(),
		StockID:        record.ID,
		Type:           movementType,
		Quantity:       0,
		QuantityBefore: record.OnHand,
		QuantityAfter:  record.OnHand,
		Reason:         reason,
		Reference:      reference,
		UnitCost:       record.UnitCost,
		TotalCost:      decimal.Zero,
		CreatedAt:      now,
	}
}

func (uc *ReservationUseCase) afterMovement(ctx context.Context, movement *entity.Movement) {
	uc.cache.Invalidate(ctx, movement.StockID)
	publishMovement(ctx, uc.publisher, uc.log, movement, uc.cfg.Currency)
}
