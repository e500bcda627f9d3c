package billing

import (
	"context"
	"sync"
	"time"

	"github.com/ticodev/facturele-api/internal/domain/entity"
	"github.com/ticodev/facturele-api/internal/domain/hacienda"
)

// DocumentSession memoriza la clave y el consecutivo de un comprobante en
// edición. La clave se acuña una sola vez por sesión, sin importar cuántas
// veces se recalculen líneas o totales: EnsureKey siempre devuelve la misma
// hasta que Reset la descarta.
//
// Los consecutivos acuñados no se devuelven: descartar un borrador deja un
// hueco en la numeración, lo cual es aceptado. Reusarlos no lo es.
type DocumentSession struct {
	numbering *NumberingService
	scope     entity.SequenceScope
	issuerID  string

	mu  sync.Mutex
	key *entity.DocumentKey
}

// NewDocumentSession crea la sesión de edición para un alcance de numeración.
func NewDocumentSession(numbering *NumberingService, scope entity.SequenceScope, issuerID string) *DocumentSession {
	return &DocumentSession{
		numbering: numbering,
		scope:     scope,
		issuerID:  issuerID,
	}
}

// EnsureKey devuelve la clave de la sesión, acuñándola en el primer uso.
// issuedAt y situation solo se consideran en la primera llamada.
func (s *DocumentSession) EnsureKey(ctx context.Context, issuedAt time.Time, situation string) (*entity.DocumentKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key != nil {
		return s.key, nil
	}

	seq, consecutive, err := s.numbering.Next(ctx, s.scope)
	if err != nil {
		return nil, err
	}

	clave, err := hacienda.BuildClave(hacienda.ClaveParams{
		IssuerID:     s.issuerID,
		Consecutive:  consecutive,
		IssuedAt:     issuedAt,
		Situation:    situation,
		SecurityCode: hacienda.StableSecurityCode(s.scope.CompanyID, s.scope.Environment),
	})
	if err != nil {
		return nil, err
	}

	s.key = &entity.DocumentKey{
		Clave:       clave,
		Consecutive: consecutive,
		Sequence:    seq,
		MintedAt:    issuedAt,
	}
	return s.key, nil
}

// Key devuelve la clave acuñada o nil si la sesión aún no acuñó ninguna.
func (s *DocumentSession) Key() *entity.DocumentKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

// Reset descarta la clave memorizada. El consecutivo quemado no vuelve al
// contador: la próxima EnsureKey acuña uno nuevo.
func (s *DocumentSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = nil
}
