package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound             = errors.New("recurso no encontrado")
	ErrInvalidInput         = errors.New("entrada inválida")
	ErrInvariantViolation   = errors.New("violación de invariante de stock")
	ErrOutOfStock           = errors.New("stock insuficiente para reservar")
	ErrConcurrencyConflict  = errors.New("conflicto de concurrencia")
	ErrReservationNotFound  = errors.New("reserva no encontrada")
	ErrReservationNotActive = errors.New("la reserva ya no está activa")
)
