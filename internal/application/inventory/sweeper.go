package inventory

import (
	"context"
	"time"

	"github.com/maefbyyas/inventory-engine/internal/application/dto"
	"github.com/maefbyyas/inventory-engine/internal/domain/repository"
	"github.com/maefbyyas/inventory-engine/pkg/config"
	"github.com/maefbyyas/inventory-engine/pkg/logger"
)

// ExpirySweeper libera periódicamente las reservas activas vencidas.
// Cada liberación corre en su propia transacción (nunca retiene dos filas de
// stock a la vez) y los fallos por reserva se aíslan: una reserva mala no
// detiene el barrido de las demás.
type ExpirySweeper struct {
	reservationRepo repository.ReservationRepository
	reservations    *ReservationUseCase
	log             *logger.Logger
	interval        time.Duration
	batchSize       int
}

// NewExpirySweeper construye el barrido. reservationRepo va atado al pool
// (solo lee los IDs vencidos; las mutaciones pasan por el caso de uso).
func NewExpirySweeper(
	reservationRepo repository.ReservationRepository,
	reservations *ReservationUseCase,
	log *logger.Logger,
	cfg config.InventoryConfig,
) *ExpirySweeper {
	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	batchSize := cfg.SweepBatchSize
	if batchSize <= 0 {
		batchSize = 200
	}
	return &ExpirySweeper{
		reservationRepo: reservationRepo,
		reservations:    reservations,
		log:             log,
		interval:        interval,
		batchSize:       batchSize,
	}
}

// Sweep ejecuta una pasada: lista un lote de reservas vencidas y las libera
// una por una, verificando cancelación entre reservas (nunca a mitad de una).
// Devuelve el conteo agregado; el error solo refleja fallos del listado o la
// cancelación del contexto, no liberaciones individuales fallidas.
func (s *ExpirySweeper) Sweep(ctx context.Context) (dto.SweepReport, error) {
	var report dto.SweepReport

	expired, err := s.reservationRepo.ListExpired(ctx, time.Now(), s.batchSize)
	if err != nil {
		return report, err
	}
	report.Scanned = len(expired)

	for _, reservationID := range expired {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := s.reservations.Release(ctx, reservationID); err != nil {
			report.Failed++
			s.log.Warn().
				Err(err).
				Str("reservation_id", reservationID).
				Msg("no se pudo liberar reserva vencida")
			continue
		}
		report.Released++
	}

	if report.Scanned > 0 {
		s.log.Info().
			Int("scanned", report.Scanned).
			Int("released", report.Released).
			Int("failed", report.Failed).
			Msg("barrido de reservas vencidas")
	}
	return report, nil
}

// Run ejecuta el barrido en su intervalo fijo hasta que el contexto se
// cancele. Hace una pasada inmediata al arrancar.
func (s *ExpirySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
		s.log.Error().Err(err).Msg("barrido inicial de reservas")
	}

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("barrido de reservas detenido")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.log.Error().Err(err).Msg("barrido de reservas")
			}
		}
	}
}
