package inventory

import (
	"context"
	"time"

	"github.com/maefbyyas/inventory-engine/internal/application/dto"
	"github.com/maefbyyas/inventory-engine/internal/domain"
	"github.com/maefbyyas/inventory-engine/internal/domain/entity"
	"github.com/maefbyyas/inventory-engine/internal/domain/repository"
	"github.com/maefbyyas/inventory-engine/pkg/logger"
)

// AvailabilityUseCase lecturas puras del stock: disponibilidad derivada y
// consultas del historial de movimientos. Sin sincronización: puede observar
// un snapshot momentáneamente viejo bajo escritores concurrentes, aceptable
// para mostrar. Reserve revalida internamente, nunca confía en esta consulta.
type AvailabilityUseCase struct {
	stockRepo    repository.StockRecordRepository
	movementRepo repository.MovementRepository
	cache        AvailabilityCache
	log          *logger.Logger
}

// NewAvailabilityUseCase construye el caso de uso con repositorios atados al
// pool (sin transacción).
func NewAvailabilityUseCase(
	stockRepo repository.StockRecordRepository,
	movementRepo repository.MovementRepository,
	cache AvailabilityCache,
	log *logger.Logger,
) *AvailabilityUseCase {
	return &AvailabilityUseCase{
		stockRepo:    stockRepo,
		movementRepo: movementRepo,
		cache:        cache,
		log:          log,
	}
}

// Availability devuelve el snapshot de disponibilidad de un registro,
// cache-aside: primero el caché, en miss lee la BD y repuebla.
func (uc *AvailabilityUseCase) Availability(ctx context.Context, stockID string) (dto.Availability, error) {
	if stockID == "" {
		return dto.Availability{}, domain.ErrInvalidInput
	}
	if snapshot, found := uc.cache.Get(ctx, stockID); found {
		return snapshot, nil
	}

	record, err := uc.stockRepo.Get(ctx, stockID)
	if err != nil {
		return dto.Availability{}, err
	}
	snapshot := Snapshot(record)
	uc.cache.Set(ctx, snapshot)
	return snapshot, nil
}

// Resolve traduce (producto, variante) al registro de stock canónico.
// Regla: con variante se prefiere el registro propio de la variante, cayendo
// al registro a nivel de producto solo si la variante no tiene; nunca se
// suman ambos.
func (uc *AvailabilityUseCase) Resolve(ctx context.Context, productID, variantID string) (string, error) {
	if productID == "" {
		return "", domain.ErrInvalidInput
	}
	return uc.stockRepo.Resolve(ctx, productID, variantID)
}

// ListMovements pagina el historial de movimientos de un registro, del más
// reciente al más antiguo.
func (uc *AvailabilityUseCase) ListMovements(ctx context.Context, stockID string, limit, offset int) ([]*entity.Movement, error) {
	if stockID == "" {
		return nil, domain.ErrInvalidInput
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return uc.movementRepo.ListByStock(ctx, stockID, limit, offset)
}

// MovementsByReference devuelve los movimientos asociados a una referencia
// externa (orden o carrito), para auditar qué hizo el motor por esa orden.
func (uc *AvailabilityUseCase) MovementsByReference(ctx context.Context, reference string) ([]*entity.Movement, error) {
	if reference == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.movementRepo.ListByReference(ctx, reference)
}

// Snapshot deriva el DTO de disponibilidad de un registro (función pura).
func Snapshot(record *entity.StockRecord) dto.Availability {
	return dto.Availability{
		StockID:         record.ID,
		OnHand:          record.OnHand,
		Reserved:        record.Reserved,
		Committed:       record.Committed,
		Available:       record.Available(),
		Status:          record.StockStatus(),
		IsLowStock:      record.IsLowStock(),
		IsCriticalStock: record.IsCriticalStock(),
		IsOutOfStock:    record.IsOutOfStock(),
		AsOf:            time.Now(),
	}
}
