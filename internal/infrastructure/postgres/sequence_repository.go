package postgres

import (
	"context"
	"fmt"

	"github.com/ticodev/facturele-api/internal/domain/entity"
	"github.com/ticodev/facturele-api/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// SequenceRepo persiste los contadores de consecutivos por ámbito
// (empresa, tipo de documento, sucursal, terminal, ambiente).
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// GetCounter devuelve el último consecutivo emitido para el ámbito, o 0 si el
// ámbito nunca emitió.
func (r *SequenceRepo) GetCounter(ctx context.Context, scope entity.SequenceScope) (int64, error) {
	query := `
		SELECT counter FROM sequence_counters
		WHERE company_id = $1 AND doc_type = $2 AND branch = $3 AND terminal = $4 AND environment = $5`
	var counter int64
	err := r.q.QueryRow(ctx, query,
		scope.CompanyID, scope.DocType, scope.Branch, scope.Terminal, scope.Environment,
	).Scan(&counter)
	if err != nil {
		if isNoRows(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("get sequence counter: %w", err)
	}
	return counter, nil
}

// SetCounter persiste el último consecutivo emitido (UPSERT sobre la llave del ámbito).
func (r *SequenceRepo) SetCounter(ctx context.Context, scope entity.SequenceScope, value int64) error {
	query := `
		INSERT INTO sequence_counters (company_id, doc_type, branch, terminal, environment, counter, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (company_id, doc_type, branch, terminal, environment)
		DO UPDATE SET counter = EXCLUDED.counter, updated_at = now()`
	_, err := r.q.Exec(ctx, query,
		scope.CompanyID, scope.DocType, scope.Branch, scope.Terminal, scope.Environment, value,
	)
	if err != nil {
		return fmt.Errorf("set sequence counter: %w", err)
	}
	return nil
}
