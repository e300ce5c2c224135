package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/maefbyyas/inventory-engine/internal/application/inventory"
	"github.com/maefbyyas/inventory-engine/internal/infrastructure/events"
	"github.com/maefbyyas/inventory-engine/internal/infrastructure/postgres"
	infraredis "github.com/maefbyyas/inventory-engine/internal/infrastructure/redis"
	"github.com/maefbyyas/inventory-engine/pkg/config"
	"github.com/maefbyyas/inventory-engine/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando motor de inventario")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Caché de disponibilidad: opcional, REDIS_ADDR vacío lo desactiva
	var cache inventory.AvailabilityCache = inventory.NopCache{}
	if cfg.Redis.Addr != "" {
		client, err := infraredis.Connect(cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer func() { _ = client.Close() }()
		cache = infraredis.NewAvailabilityCache(client, cfg.Redis, log)
	}

	// Eventos de movimiento: opcional, NATS_URL vacío lo desactiva
	var publisher inventory.MovementPublisher = inventory.NopPublisher{}
	if cfg.NATS.URL != "" {
		conn, err := events.Connect(cfg.NATS.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a NATS")
		}
		defer conn.Close()
		publisher = events.NewNATSPublisher(conn)
	}

	txRunner := postgres.NewTxRunner(pool)
	reservationRepo := postgres.NewReservationRepository(pool)

	reservationUC := inventory.NewReservationUseCase(txRunner, cache, publisher, log, cfg.Inventory)
	sweeper := inventory.NewExpirySweeper(reservationRepo, reservationUC, log, cfg.Inventory)

	log.Info().
		Dur("interval", cfg.Inventory.SweepInterval).
		Int("batch_size", cfg.Inventory.SweepBatchSize).
		Msg("barrido de reservas vencidas activo")

	// Bloquea hasta SIGINT/SIGTERM; el barrido corta entre reservas, nunca a mitad de una
	sweeper.Run(ctx)

	log.Info().Msg("motor de inventario detenido")
}
