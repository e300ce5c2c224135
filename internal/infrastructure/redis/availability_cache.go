package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/maefbyyas/inventory-engine/internal/application/dto"
	"github.com/maefbyyas/inventory-engine/internal/application/inventory"
	"github.com/maefbyyas/inventory-engine/pkg/config"
	"github.com/maefbyyas/inventory-engine/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	maxRetries      = 3
	minRetryBackoff = 100 * time.Millisecond
	maxRetryBackoff = 300 * time.Millisecond
	dialTimeout     = 5 * time.Second
	readTimeout     = 3 * time.Second
	writeTimeout    = 3 * time.Second
)

var _ inventory.AvailabilityCache = (*AvailabilityCache)(nil)

// Connect abre el cliente Redis y verifica la conexión.
func Connect(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            cfg.Addr,
		Password:        cfg.Password,
		DB:              cfg.DB,
		MaxRetries:      maxRetries,
		MinRetryBackoff: minRetryBackoff,
		MaxRetryBackoff: maxRetryBackoff,
		DialTimeout:     dialTimeout,
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// AvailabilityCache caché cache-aside de snapshots de disponibilidad.
// Los errores del backend se registran y se tratan como miss: el caché nunca
// bloquea una lectura ni una invalidación.
type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewAvailabilityCache construye el caché con el TTL configurado.
func NewAvailabilityCache(client *redis.Client, cfg config.RedisConfig, log *logger.Logger) *AvailabilityCache {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &AvailabilityCache{client: client, ttl: ttl, log: log}
}

func cacheKey(stockID string) string {
	return "stock:availability:" + stockID
}

// Get devuelve el snapshot cacheado si existe.
func (c *AvailabilityCache) Get(ctx context.Context, stockID string) (dto.Availability, bool) {
	payload, err := c.client.Get(ctx, cacheKey(stockID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn().Err(err).Str("stock_id", stockID).Msg("leer caché de disponibilidad")
		}
		return dto.Availability{}, false
	}
	var snapshot dto.Availability
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		c.log.Warn().Err(err).Str("stock_id", stockID).Msg("decodificar snapshot cacheado")
		return dto.Availability{}, false
	}
	return snapshot, true
}

// Set guarda el snapshot con el TTL del caché.
func (c *AvailabilityCache) Set(ctx context.Context, snapshot dto.Availability) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		c.log.Warn().Err(err).Str("stock_id", snapshot.StockID).Msg("codificar snapshot")
		return
	}
	if err := c.client.Set(ctx, cacheKey(snapshot.StockID), payload, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("stock_id", snapshot.StockID).Msg("guardar snapshot en caché")
	}
}

// Invalidate borra el snapshot de un registro tras una mutación confirmada.
func (c *AvailabilityCache) Invalidate(ctx context.Context, stockID string) {
	if err := c.client.Del(ctx, cacheKey(stockID)).Err(); err != nil {
		c.log.Warn().Err(err).Str("stock_id", stockID).Msg("invalidar caché de disponibilidad")
	}
}
