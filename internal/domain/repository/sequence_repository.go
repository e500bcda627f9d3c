package repository

import (
	"context"

	"github.com/ticodev/facturele-api/internal/domain/entity"
)

// SequenceRepository define el puerto de persistencia de los contadores de
// numeración consecutiva. Cada contador vive bajo un alcance independiente
// (empresa, tipo de documento, sucursal, terminal, ambiente).
//
// El servicio de numeración serializa los accesos por alcance; la
// implementación solo necesita leer y escribir el valor, no coordinarlo.
type SequenceRepository interface {
	// GetCounter devuelve el último consecutivo emitido para el alcance.
	// Un alcance que nunca emitió devuelve 0 sin error.
	GetCounter(ctx context.Context, scope entity.SequenceScope) (int64, error)

	// SetCounter persiste el último consecutivo emitido para el alcance,
	// creando el registro si no existe.
	SetCounter(ctx context.Context, scope entity.SequenceScope, value int64) error
}
