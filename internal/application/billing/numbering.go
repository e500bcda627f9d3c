package billing

import (
	"context"
	"fmt"
	"sync"

	"github.com/ticodev/facturele-api/internal/domain"
	"github.com/ticodev/facturele-api/internal/domain/entity"
	"github.com/ticodev/facturele-api/internal/domain/hacienda"
	"github.com/ticodev/facturele-api/internal/domain/repository"
)

// NumberingService asigna consecutivos con garantía de a-lo-sumo-una-vez por
// alcance (empresa, tipo de documento, sucursal, terminal, ambiente).
//
// Cada alcance tiene su propio mutex: dos emisiones concurrentes sobre el
// mismo alcance se serializan, pero alcances distintos avanzan en paralelo.
// El contador se carga del repositorio la primera vez que se usa el alcance y
// se persiste ANTES de liberar el mutex: si el proceso muere después de
// persistir, el peor caso es un consecutivo saltado, nunca uno repetido.
type NumberingService struct {
	repo repository.SequenceRepository

	mu     sync.Mutex // protege el mapa, no los contadores
	scopes map[string]*scopeCounter
}

type scopeCounter struct {
	mu     sync.Mutex
	loaded bool
	last   int64 // último consecutivo emitido
}

// NewNumberingService construye el servicio de numeración.
func NewNumberingService(repo repository.SequenceRepository) *NumberingService {
	return &NumberingService{
		repo:   repo,
		scopes: make(map[string]*scopeCounter),
	}
}

// Next asigna el siguiente consecutivo del alcance y devuelve la secuencia
// cruda junto con el consecutivo formateado de 20 dígitos. Cuando el contador
// alcanza los 10 dígitos devuelve domain.ErrSequenceExhausted: el alcance no
// puede emitir más comprobantes.
func (s *NumberingService) Next(ctx context.Context, scope entity.SequenceScope) (int64, string, error) {
	c := s.counterFor(scope)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		last, err := s.repo.GetCounter(ctx, scope)
		if err != nil {
			return 0, "", fmt.Errorf("cargar contador %s: %w", scope.Key(), err)
		}
		c.last = last
		c.loaded = true
	}

	next := c.last + 1
	if next > hacienda.MaxSequence {
		return 0, "", fmt.Errorf("%w: %s", domain.ErrSequenceExhausted, scope.Key())
	}
	consecutive, err := hacienda.FormatConsecutive(scope.Branch, scope.Terminal, scope.DocType, next)
	if err != nil {
		return 0, "", err
	}

	// Persistir antes de entregar: el consecutivo queda quemado aunque la
	// emisión posterior falle.
	if err := s.repo.SetCounter(ctx, scope, next); err != nil {
		return 0, "", fmt.Errorf("persistir contador %s: %w", scope.Key(), err)
	}
	c.last = next
	return next, consecutive, nil
}

// Peek devuelve el último consecutivo emitido del alcance sin avanzar el
// contador. Carga del repositorio si el alcance aún no está en memoria.
func (s *NumberingService) Peek(ctx context.Context, scope entity.SequenceScope) (int64, error) {
	c := s.counterFor(scope)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		last, err := s.repo.GetCounter(ctx, scope)
		if err != nil {
			return 0, err
		}
		c.last = last
		c.loaded = true
	}
	return c.last, nil
}

// ResetScope descarta el estado en memoria del alcance. El próximo Next
// recarga del repositorio. Se usa al cambiar de ambiente: los contadores de
// sandbox y producción son independientes y no deben contaminarse.
func (s *NumberingService) ResetScope(scope entity.SequenceScope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scopes, scope.Key())
}

func (s *NumberingService) counterFor(scope entity.SequenceScope) *scopeCounter {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := scope.Key()
	c, ok := s.scopes[key]
	if !ok {
		c = &scopeCounter{}
		s.scopes[key] = c
	}
	return c
}
