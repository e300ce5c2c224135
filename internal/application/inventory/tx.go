package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/maefbyyas/inventory-engine/internal/domain"
	"github.com/maefbyyas/inventory-engine/internal/domain/repository"
)

// runSerialized ejecuta fn dentro de una transacción y reintenta ante
// domain.ErrConcurrencyConflict hasta maxRetries veces, con una pequeña espera
// creciente. Agotados los reintentos, el conflicto se devuelve al caller como
// error transitorio.
func runSerialized(ctx context.Context, runner TxRunner, maxRetries int, fn func(
	stockRepo repository.StockRecordRepository,
	movementRepo repository.MovementRepository,
	reservationRepo repository.ReservationRepository,
) error) error {
	if maxRetries < 1 {
		maxRetries = 1
	}
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = runner.Run(ctx, fn)
		if err == nil || !errors.Is(err, domain.ErrConcurrencyConflict) {
			return err
		}
		if attempt == maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 10 * time.Millisecond):
		}
	}
	return err
}
