package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticodev/facturele-api/internal/application/billing"
	"github.com/ticodev/facturele-api/internal/domain"
)

// sequenceUseCase caso de uso mínimo: solo numeración, sin repositorios de
// catálogo ni orquestador.
func sequenceUseCase(repo *memSequenceRepo) *billing.CreateDocumentUseCase {
	return billing.NewCreateDocumentUseCase(
		nil, nil, nil, nil,
		billing.NewNumberingService(repo), billing.NewAssembler(), nil, nil,
		billing.HaciendaConfig{Environment: "sandbox"}, testLogger())
}

func TestSequenceStatus_ReportaSinAvanzar(t *testing.T) {
	repo := newMemSequenceRepo()
	scope := testScope()
	repo.counters[scope.Key()] = 42

	uc := sequenceUseCase(repo)
	status, err := uc.SequenceStatus(context.Background(), scope.CompanyID, scope.DocType, scope.Branch, scope.Terminal)
	require.NoError(t, err)
	assert.Equal(t, int64(42), status.LastSequence)
	assert.Equal(t, "sandbox", status.Environment)

	// La consulta no quema consecutivos: el valor se mantiene.
	status, err = uc.SequenceStatus(context.Background(), scope.CompanyID, scope.DocType, scope.Branch, scope.Terminal)
	require.NoError(t, err)
	assert.Equal(t, int64(42), status.LastSequence)
}

func TestSequenceStatus_AlcanceNuevoEnCero(t *testing.T) {
	uc := sequenceUseCase(newMemSequenceRepo())

	status, err := uc.SequenceStatus(context.Background(), "emp-1", "04", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), status.LastSequence, "un alcance sin emisiones reporta cero")
}

func TestSequenceStatus_TipoDocumentoDesconocido(t *testing.T) {
	uc := sequenceUseCase(newMemSequenceRepo())

	_, err := uc.SequenceStatus(context.Background(), "emp-1", "09", 1, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSequenceStatus_UsaElAmbienteActivo(t *testing.T) {
	repo := newMemSequenceRepo()
	sandbox := testScope()
	production := testScope()
	production.Environment = "production"
	repo.counters[sandbox.Key()] = 7
	repo.counters[production.Key()] = 3

	uc := sequenceUseCase(repo)
	sw := billing.NewEnvironmentSwitch("sandbox")
	uc.SetEnvironmentSource(sw)

	status, err := uc.SequenceStatus(context.Background(), sandbox.CompanyID, sandbox.DocType, sandbox.Branch, sandbox.Terminal)
	require.NoError(t, err)
	assert.Equal(t, int64(7), status.LastSequence)

	require.NoError(t, sw.Set("production"))
	status, err = uc.SequenceStatus(context.Background(), sandbox.CompanyID, sandbox.DocType, sandbox.Branch, sandbox.Terminal)
	require.NoError(t, err)
	assert.Equal(t, int64(3), status.LastSequence, "cada ambiente reporta su propio contador")
	assert.Equal(t, "production", status.Environment)
}
