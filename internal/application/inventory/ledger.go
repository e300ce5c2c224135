package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/maefbyyas/inventory-engine/internal/application/dto"
	"github.com/maefbyyas/inventory-engine/internal/domain"
	"github.com/maefbyyas/inventory-engine/internal/domain/entity"
	"github.com/maefbyyas/inventory-engine/internal/domain/repository"
	dstock "github.com/maefbyyas/inventory-engine/internal/domain/stock"
	"github.com/maefbyyas/inventory-engine/pkg/config"
	"github.com/maefbyyas/inventory-engine/pkg/logger"
)

// LedgerUseCase aplica ajustes al libro de stock: muta on_hand de forma
// transaccional (fila bloqueada con SELECT FOR UPDATE), valida invariantes
// antes de escribir y deja un movimiento inmutable por cada mutación.
type LedgerUseCase struct {
	txRunner  TxRunner
	cache     AvailabilityCache
	publisher MovementPublisher
	log       *logger.Logger
	cfg       config.InventoryConfig
}

// NewLedgerUseCase construye el caso de uso.
func NewLedgerUseCase(
	txRunner TxRunner,
	cache AvailabilityCache,
	publisher MovementPublisher,
	log *logger.Logger,
	cfg config.InventoryConfig,
) *LedgerUseCase {
	return &LedgerUseCase{
		txRunner:  txRunner,
		cache:     cache,
		publisher: publisher,
		log:       log,
		cfg:       cfg,
	}
}

// AdjustInput entrada para un ajuste del libro de stock.
// UnitCost es opcional: en entradas (restock/return) recalcula el costo
// promedio ponderado del registro.
type AdjustInput struct {
	StockID        string
	QuantityChange int64
	MovementType   string
	Reason         string
	Reference      string
	UnitCost       *decimal.Decimal
}

// Adjust muta on_hand por QuantityChange y apunta el movimiento con los
// valores antes/después. Falla con domain.ErrInvariantViolation si el
// resultado dejaría on_hand < 0 o reserved > on_hand; en ese caso el registro
// queda intacto (la transacción se revierte completa).
func (uc *LedgerUseCase) Adjust(ctx context.Context, input AdjustInput) (*entity.Movement, error) {
	if input.StockID == "" || input.QuantityChange == 0 {
		return nil, domain.ErrInvalidInput
	}
	if !entity.ValidAdjustmentType(input.MovementType) {
		return nil, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, input.MovementType)
	}
	if input.UnitCost != nil && input.UnitCost.LessThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}

	var movement *entity.Movement
	err := runSerialized(ctx, uc.txRunner, uc.cfg.MaxTxRetries, func(
		stockRepo repository.StockRecordRepository,
		movementRepo repository.MovementRepository,
		_ repository.ReservationRepository,
	) error {
		// Bloquea la fila del registro (SELECT FOR UPDATE)
		record, err := stockRepo.GetForUpdate(ctx, input.StockID)
		if err != nil {
			return err
		}
		now := time.Now()
		before := record.OnHand

		record.OnHand += input.QuantityChange
		if violation := record.CheckInvariants(); violation != "" {
			return fmt.Errorf("%w: %s", domain.ErrInvariantViolation, violation)
		}

		// Solo las entradas de mercadería (restock/return) con costo declarado
		// recalculan el promedio ponderado; un adjustment positivo corrige
		// cantidades, no costos.
		inbound := input.MovementType == entity.MovementTypeRestock ||
			input.MovementType == entity.MovementTypeReturn
		if inbound && input.UnitCost != nil && input.QuantityChange > 0 {
			record.UnitCost = dstock.AverageCost(before, record.UnitCost, input.QuantityChange, *input.UnitCost)
		}

		unitCost := record.UnitCost
		if input.UnitCost != nil {
			unitCost = *input.UnitCost
		}

		record.LastMovementAt = &now
		record.UpdatedAt = now
		if err := stockRepo.Update(ctx, record); err != nil {
			return err
		}

		movement = &entity.Movement{
			ID:             uuid.New().String(),
			StockID:        record.ID,
			Type:           input.MovementType,
			Quantity:       input.QuantityChange,
			QuantityBefore: before,
			QuantityAfter:  record.OnHand,
			Reason:         input.Reason,
			Reference:      input.Reference,
			UnitCost:       unitCost,
			TotalCost:      decimal.NewFromInt(input.QuantityChange).Mul(unitCost),
			CreatedAt:      now,
		}
		return movementRepo.Create(ctx, movement)
	})
	if err != nil {
		return nil, err
	}

	uc.afterMovement(ctx, movement)
	return movement, nil
}

// CreateRecordInput entrada para dar de alta un registro de stock.
// Umbrales en cero toman los valores por defecto de la configuración.
type CreateRecordInput struct {
	ProductID              string
	VariantID              string
	Location               string
	InitialOnHand          int64
	LowStockThreshold      int64
	CriticalStockThreshold int64
	UnitCost               *decimal.Decimal
	Reference              string
}

// CreateRecord da de alta el registro de stock de un producto o variante en
// una ubicación. Si hay stock inicial, queda documentado con un movimiento
// restock (el historial arranca completo desde la primera unidad).
func (uc *LedgerUseCase) CreateRecord(ctx context.Context, input CreateRecordInput) (*entity.StockRecord, error) {
	if input.ProductID == "" || input.InitialOnHand < 0 {
		return nil, domain.ErrInvalidInput
	}
	location := input.Location
	if location == "" {
		location = "main"
	}
	lowThreshold := input.LowStockThreshold
	if lowThreshold == 0 {
		lowThreshold = uc.cfg.DefaultLowStockThreshold
	}
	criticalThreshold := input.CriticalStockThreshold
	if criticalThreshold == 0 {
		criticalThreshold = uc.cfg.DefaultCriticalStockThreshold
	}
	unitCost := decimal.Zero
	if input.UnitCost != nil {
		if input.UnitCost.LessThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		unitCost = *input.UnitCost
	}

	var (
		record   *entity.StockRecord
		movement *entity.Movement
	)
	err := runSerialized(ctx, uc.txRunner, uc.cfg.MaxTxRetries, func(
		stockRepo repository.StockRecordRepository,
		movementRepo repository.MovementRepository,
		_ repository.ReservationRepository,
	) error {
		now := time.Now()
		record = &entity.StockRecord{
			ID:                     uuid.New().String(),
			ProductID:              input.ProductID,
			VariantID:              input.VariantID,
			Location:               location,
			OnHand:                 input.InitialOnHand,
			LowStockThreshold:      lowThreshold,
			CriticalStockThreshold: criticalThreshold,
			UnitCost:               unitCost,
			CreatedAt:              now,
			UpdatedAt:              now,
		}
		if input.InitialOnHand > 0 {
			record.LastMovementAt = &now
		}
		if err := stockRepo.Create(ctx, record); err != nil {
			return err
		}
		if input.InitialOnHand == 0 {
			return nil
		}
		movement = &entity.Movement{
			ID:             uuid.New().String(),
			StockID:        record.ID,
			Type:           entity.MovementTypeRestock,
			Quantity:       input.InitialOnHand,
			QuantityBefore: 0,
			QuantityAfter:  input.InitialOnHand,
			Reason:         "stock inicial",
			Reference:      input.Reference,
			UnitCost:       unitCost,
			TotalCost:      decimal.NewFromInt(input.InitialOnHand).Mul(unitCost),
			CreatedAt:      now,
		}
		return movementRepo.Create(ctx, movement)
	})
	if err != nil {
		return nil, err
	}

	if movement != nil {
		uc.afterMovement(ctx, movement)
	}
	return record, nil
}

// afterMovement invalida el snapshot cacheado y publica el evento del
// movimiento confirmado. Best-effort: los fallos se registran, no revierten.
func (uc *LedgerUseCase) afterMovement(ctx context.Context, movement *entity.Movement) {
	uc.cache.Invalidate(ctx, movement.StockID)
	publishMovement(ctx, uc.publisher, uc.log, movement, uc.cfg.Currency)
}

func publishMovement(ctx context.Context, publisher MovementPublisher, log *logger.Logger, movement *entity.Movement, currency string) {
	event := dto.MovementEvent{
		MovementID:     movement.ID,
		StockID:        movement.StockID,
		Type:           movement.Type,
		Quantity:       movement.Quantity,
		QuantityBefore: movement.QuantityBefore,
		QuantityAfter:  movement.QuantityAfter,
		Reference:      movement.Reference,
		TotalCost:      movement.TotalCost,
		Currency:       currency,
		OccurredAt:     movement.CreatedAt,
	}
	if err := publisher.Publish(ctx, event); err != nil {
		log.Warn().
			Err(err).
			Str("movement_id", movement.ID).
			Str("stock_id", movement.StockID).
			Str("type", movement.Type).
			Msg("no se pudo publicar evento de movimiento")
	}
}
