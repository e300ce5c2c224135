package inventory_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/maefbyyas/inventory-engine/internal/application/dto"
	"github.com/maefbyyas/inventory-engine/internal/application/inventory"
	"github.com/maefbyyas/inventory-engine/internal/domain"
	"github.com/maefbyyas/inventory-engine/internal/domain/entity"
	"github.com/maefbyyas/inventory-engine/internal/domain/repository"
	"github.com/maefbyyas/inventory-engine/pkg/config"
)

// ──────────────────────────────────────────────────────────────────────────────
// Doble en memoria del almacenamiento: un mutex serializa las transacciones
// (equivalente al SELECT FOR UPDATE por fila) y un snapshot al inicio de cada
// tx da semántica de rollback, para poder verificar que las operaciones
// fallidas no dejan mutaciones parciales.
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	mu           sync.Mutex
	records      map[string]*entity.StockRecord
	movements    []*entity.Movement
	reservations map[string]*entity.Reservation

	// Ganchos de fallo para probar aislamiento de errores
	failCreateMovement    error
	failUpdateReservation map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		records:               make(map[string]*entity.StockRecord),
		reservations:          make(map[string]*entity.Reservation),
		failUpdateReservation: make(map[string]error),
	}
}

// seedRecord registra un StockRecord y devuelve su ID.
func (s *memStore) seedRecord(record entity.StockRecord) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.Location == "" {
		record.Location = "main"
	}
	s.records[record.ID] = &record
	return record.ID
}

// record devuelve una copia del registro para asserts.
func (s *memStore) record(id string) entity.StockRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.records[id]
}

// reservation devuelve una copia de la reserva para asserts.
func (s *memStore) reservation(id string) entity.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.reservations[id]
}

// movementsOf devuelve copias de los movimientos de un registro, en orden de inserción.
func (s *memStore) movementsOf(stockID string) []entity.Movement {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Movement
	for _, m := range s.movements {
		if m.StockID == stockID {
			out = append(out, *m)
		}
	}
	return out
}

func (s *memStore) snapshot() (map[string]*entity.StockRecord, []*entity.Movement, map[string]*entity.Reservation) {
	records := make(map[string]*entity.StockRecord, len(s.records))
	for id, r := range s.records {
		c := *r
		records[id] = &c
	}
	movements := make([]*entity.Movement, len(s.movements))
	copy(movements, s.movements)
	reservations := make(map[string]*entity.Reservation, len(s.reservations))
	for id, r := range s.reservations {
		c := *r
		reservations[id] = &c
	}
	return records, movements, reservations
}

// Run implementa inventory.TxRunner: serializa con el mutex y revierte el
// estado completo si fn falla.
func (s *memStore) Run(_ context.Context, fn func(
	stockRepo repository.StockRecordRepository,
	movementRepo repository.MovementRepository,
	reservationRepo repository.ReservationRepository,
) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, movements, reservations := s.snapshot()
	err := fn(txStockRepo{s}, txMovementRepo{s}, txReservationRepo{s})
	if err != nil {
		s.records, s.movements, s.reservations = records, movements, reservations
	}
	return err
}

// ── Operaciones base (sin lock: el caller lo sostiene) ───────────────────────

func (s *memStore) getRecord(id string) (*entity.StockRecord, error) {
	r, ok := s.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *r
	return &c, nil
}

func (s *memStore) putRecord(record *entity.StockRecord) error {
	if _, ok := s.records[record.ID]; !ok {
		return domain.ErrNotFound
	}
	c := *record
	s.records[record.ID] = &c
	return nil
}

func (s *memStore) createRecord(record *entity.StockRecord) error {
	c := *record
	s.records[record.ID] = &c
	return nil
}

func (s *memStore) resolve(productID, variantID string) (string, error) {
	if variantID != "" {
		for _, r := range s.records {
			if r.ProductID == productID && r.VariantID == variantID {
				return r.ID, nil
			}
		}
	}
	for _, r := range s.records {
		if r.ProductID == productID && r.VariantID == "" {
			return r.ID, nil
		}
	}
	return "", domain.ErrNotFound
}

func (s *memStore) createMovement(movement *entity.Movement) error {
	if s.failCreateMovement != nil {
		return s.failCreateMovement
	}
	c := *movement
	s.movements = append(s.movements, &c)
	return nil
}

func (s *memStore) listByStock(stockID string, limit, offset int) ([]*entity.Movement, error) {
	var filtered []*entity.Movement
	for i := len(s.movements) - 1; i >= 0; i-- { // más reciente primero
		if s.movements[i].StockID == stockID {
			filtered = append(filtered, s.movements[i])
		}
	}
	if offset >= len(filtered) {
		return nil, nil
	}
	filtered = filtered[offset:]
	if limit < len(filtered) {
		filtered = filtered[:limit]
	}
	out := make([]*entity.Movement, len(filtered))
	for i, m := range filtered {
		c := *m
		out[i] = &c
	}
	return out, nil
}

func (s *memStore) listByReference(reference string) ([]*entity.Movement, error) {
	var out []*entity.Movement
	for _, m := range s.movements {
		if m.Reference == reference {
			c := *m
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *memStore) getReservation(id string) (*entity.Reservation, error) {
	r, ok := s.reservations[id]
	if !ok {
		return nil, domain.ErrReservationNotFound
	}
	c := *r
	return &c, nil
}

func (s *memStore) createReservation(reservation *entity.Reservation) error {
	c := *reservation
	s.reservations[reservation.ID] = &c
	return nil
}

func (s *memStore) updateReservation(reservation *entity.Reservation) error {
	if err, ok := s.failUpdateReservation[reservation.ID]; ok {
		return err
	}
	if _, ok := s.reservations[reservation.ID]; !ok {
		return domain.ErrReservationNotFound
	}
	c := *reservation
	s.reservations[reservation.ID] = &c
	return nil
}

func (s *memStore) listExpired(now time.Time, limit int) ([]string, error) {
	var ids []string
	for id, r := range s.reservations {
		if r.ShouldBeReleased(now) {
			ids = append(ids, id)
			if len(ids) == limit {
				break
			}
		}
	}
	return ids, nil
}

// ── Adaptadores atados a la tx (el lock lo sostiene Run) ─────────────────────

type txStockRepo struct{ s *memStore }

func (r txStockRepo) Get(_ context.Context, id string) (*entity.StockRecord, error) {
	return r.s.getRecord(id)
}
func (r txStockRepo) GetForUpdate(_ context.Context, id string) (*entity.StockRecord, error) {
	return r.s.getRecord(id)
}
func (r txStockRepo) Create(_ context.Context, record *entity.StockRecord) error {
	return r.s.createRecord(record)
}
func (r txStockRepo) Update(_ context.Context, record *entity.StockRecord) error {
	return r.s.putRecord(record)
}
func (r txStockRepo) Resolve(_ context.Context, productID, variantID string) (string, error) {
	return r.s.resolve(productID, variantID)
}

type txMovementRepo struct{ s *memStore }

func (r txMovementRepo) Create(_ context.Context, m *entity.Movement) error {
	return r.s.createMovement(m)
}
func (r txMovementRepo) ListByStock(_ context.Context, stockID string, limit, offset int) ([]*entity.Movement, error) {
	return r.s.listByStock(stockID, limit, offset)
}
func (r txMovementRepo) ListByReference(_ context.Context, reference string) ([]*entity.Movement, error) {
	return r.s.listByReference(reference)
}

type txReservationRepo struct{ s *memStore }

func (r txReservationRepo) Create(_ context.Context, res *entity.Reservation) error {
	return r.s.createReservation(res)
}
func (r txReservationRepo) Get(_ context.Context, id string) (*entity.Reservation, error) {
	return r.s.getReservation(id)
}
func (r txReservationRepo) GetForUpdate(_ context.Context, id string) (*entity.Reservation, error) {
	return r.s.getReservation(id)
}
func (r txReservationRepo) Update(_ context.Context, res *entity.Reservation) error {
	return r.s.updateReservation(res)
}
func (r txReservationRepo) ListExpired(_ context.Context, now time.Time, limit int) ([]string, error) {
	return r.s.listExpired(now, limit)
}

// ── Adaptadores "pool": toman el lock por llamada (lecturas fuera de tx) ─────

type poolStockRepo struct{ s *memStore }

func (r poolStockRepo) Get(ctx context.Context, id string) (*entity.StockRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.getRecord(id)
}
func (r poolStockRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockRecord, error) {
	return r.Get(ctx, id)
}
func (r poolStockRepo) Create(_ context.Context, record *entity.StockRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.createRecord(record)
}
func (r poolStockRepo) Update(_ context.Context, record *entity.StockRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.putRecord(record)
}
func (r poolStockRepo) Resolve(_ context.Context, productID, variantID string) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.resolve(productID, variantID)
}

type poolMovementRepo struct{ s *memStore }

func (r poolMovementRepo) Create(_ context.Context, m *entity.Movement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.createMovement(m)
}
func (r poolMovementRepo) ListByStock(_ context.Context, stockID string, limit, offset int) ([]*entity.Movement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.listByStock(stockID, limit, offset)
}
func (r poolMovementRepo) ListByReference(_ context.Context, reference string) ([]*entity.Movement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.listByReference(reference)
}

type poolReservationRepo struct{ s *memStore }

func (r poolReservationRepo) Create(_ context.Context, res *entity.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.createReservation(res)
}
func (r poolReservationRepo) Get(_ context.Context, id string) (*entity.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.getReservation(id)
}
func (r poolReservationRepo) GetForUpdate(ctx context.Context, id string) (*entity.Reservation, error) {
	return r.Get(ctx, id)
}
func (r poolReservationRepo) Update(_ context.Context, res *entity.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.updateReservation(res)
}
func (r poolReservationRepo) ListExpired(_ context.Context, now time.Time, limit int) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.listExpired(now, limit)
}

// ── Dobles de caché y publicador ─────────────────────────────────────────────

type spyCache struct {
	mu          sync.Mutex
	snapshots   map[string]dto.Availability
	invalidated []string
}

func newSpyCache() *spyCache {
	return &spyCache{snapshots: make(map[string]dto.Availability)}
}

func (c *spyCache) Get(_ context.Context, stockID string) (dto.Availability, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot, ok := c.snapshots[stockID]
	return snapshot, ok
}

func (c *spyCache) Set(_ context.Context, snapshot dto.Availability) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots[snapshot.StockID] = snapshot
}

func (c *spyCache) Invalidate(_ context.Context, stockID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.snapshots, stockID)
	c.invalidated = append(c.invalidated, stockID)
}

type spyPublisher struct {
	mu     sync.Mutex
	events []dto.MovementEvent
}

func (p *spyPublisher) Publish(_ context.Context, event dto.MovementEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *spyPublisher) published() []dto.MovementEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]dto.MovementEvent, len(p.events))
	copy(out, p.events)
	return out
}

// conflictRunner envuelve un TxRunner y falla las primeras N ejecuciones con
// ErrConcurrencyConflict, para probar el reintento acotado.
type conflictRunner struct {
	inner     inventory.TxRunner
	mu        sync.Mutex
	conflicts int
}

func (r *conflictRunner) Run(ctx context.Context, fn func(
	stockRepo repository.StockRecordRepository,
	movementRepo repository.MovementRepository,
	reservationRepo repository.ReservationRepository,
) error) error {
	r.mu.Lock()
	if r.conflicts > 0 {
		r.conflicts--
		r.mu.Unlock()
		return domain.ErrConcurrencyConflict
	}
	r.mu.Unlock()
	return r.inner.Run(ctx, fn)
}

// ── Configuración y constructores compartidos ────────────────────────────────

func testInventoryConfig() config.InventoryConfig {
	return config.InventoryConfig{
		DefaultLowStockThreshold:      5,
		DefaultCriticalStockThreshold: 1,
		DefaultReservationTTL:         30 * time.Minute,
		SweepInterval:                 time.Minute,
		SweepBatchSize:                100,
		MaxTxRetries:                  3,
		Currency:                      "XOF",
	}
}

func costPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
