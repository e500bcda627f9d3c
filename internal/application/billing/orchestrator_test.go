package billing_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticodev/facturele-api/internal/application/billing"
	"github.com/ticodev/facturele-api/internal/domain"
	"github.com/ticodev/facturele-api/internal/domain/entity"
)

// testDocument comprobante ensamblado listo para el orquestador, ya persistido.
func testDocument(t *testing.T, repo *memDocRepo) *entity.Document {
	t.Helper()
	key := testKey()
	doc := &entity.Document{
		ID:          "doc-1",
		CompanyID:   "emp-1",
		DocType:     "01",
		Environment: "sandbox",
		Clave:       key.Clave,
		Consecutive: key.Consecutive,
		Issuer:      *testCompany(),
		Receiver:    entity.Receiver{Name: "Ana Rojas", IDType: "01", IDNumber: "109870654", Email: "ana@example.cr"},
		Status:      entity.StatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), doc))
	return doc
}

func sandboxCfg() billing.HaciendaConfig {
	return billing.HaciendaConfig{Environment: "sandbox"}
}

func productionCfg() billing.HaciendaConfig {
	return billing.HaciendaConfig{Environment: "production"}
}

func TestOrchestrator_SandboxSinClienteSimulaAceptacion(t *testing.T) {
	repo := newMemDocRepo()
	doc := testDocument(t, repo)

	orch := billing.NewSubmissionOrchestrator(
		repo, &stubXMLBuilder{}, nil, nil, nil, nil, sandboxCfg(), testLogger())

	err := orch.Process(context.Background(), doc)
	require.NoError(t, err)

	stored, _ := repo.GetByID(context.Background(), doc.ID)
	require.NotNil(t, stored)
	assert.Equal(t, entity.StatusCompleted, stored.Status)
	assert.Equal(t, "SIM-"+doc.Consecutive, stored.ReferenceID)
	assert.Empty(t, stored.FailedStage)
	assert.NotEmpty(t, stored.XMLSigned)
}

func TestOrchestrator_ModoDegradadoEnviaSinFirmar(t *testing.T) {
	repo := newMemDocRepo()
	doc := testDocument(t, repo)
	submitter := &stubSubmitter{}

	// Sin firmador ni certificado: fuera de producción se degrada a XML sin firmar.
	orch := billing.NewSubmissionOrchestrator(
		repo, &stubXMLBuilder{}, nil, nil, submitter, nil, sandboxCfg(), testLogger())

	err := orch.Process(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, 1, submitter.numCalls)
	assert.NotContains(t, string(submitter.lastXML), "firmado",
		"el XML viaja sin firmar en modo degradado")

	stored, _ := repo.GetByID(context.Background(), doc.ID)
	assert.Equal(t, entity.StatusCompleted, stored.Status)
}

func TestOrchestrator_ConFirmadorElXMLViajaFirmado(t *testing.T) {
	repo := newMemDocRepo()
	doc := testDocument(t, repo)
	submitter := &stubSubmitter{}

	orch := billing.NewSubmissionOrchestrator(
		repo, &stubXMLBuilder{}, &stubSigner{}, &stubCertSource{cert: dummyCert()},
		submitter, nil, sandboxCfg(), testLogger())

	err := orch.Process(context.Background(), doc)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(submitter.lastXML), "<!--firmado-->"))
	stored, _ := repo.GetByID(context.Background(), doc.ID)
	assert.Contains(t, stored.XMLSigned, "firmado")
}

func TestOrchestrator_ProduccionSinFirmaDetieneLaEmision(t *testing.T) {
	repo := newMemDocRepo()
	doc := testDocument(t, repo)
	submitter := &stubSubmitter{}

	orch := billing.NewSubmissionOrchestrator(
		repo, &stubXMLBuilder{}, nil, nil, submitter, nil, productionCfg(), testLogger())

	err := orch.Process(context.Background(), doc)
	require.ErrorIs(t, err, domain.ErrSigningUnavailable)
	assert.Equal(t, 0, submitter.numCalls, "nada debe enviarse sin firma en producción")

	stored, _ := repo.GetByID(context.Background(), doc.ID)
	assert.Equal(t, entity.StatusPending, stored.Status)
	assert.Equal(t, entity.StageSigning, stored.FailedStage)
}

func TestOrchestrator_ErrorDelFirmadorEnProduccion(t *testing.T) {
	repo := newMemDocRepo()
	doc := testDocument(t, repo)

	orch := billing.NewSubmissionOrchestrator(
		repo, &stubXMLBuilder{}, &stubSigner{err: errTransport},
		&stubCertSource{cert: dummyCert()}, &stubSubmitter{}, nil, productionCfg(), testLogger())

	err := orch.Process(context.Background(), doc)
	require.ErrorIs(t, err, domain.ErrSigningError)

	stored, _ := repo.GetByID(context.Background(), doc.ID)
	assert.Equal(t, entity.StageSigning, stored.FailedStage)
}

func TestOrchestrator_FalloDeTransporteDejaPendiente(t *testing.T) {
	repo := newMemDocRepo()
	doc := testDocument(t, repo)
	submitter := &stubSubmitter{err: errTransport}

	orch := billing.NewSubmissionOrchestrator(
		repo, &stubXMLBuilder{}, nil, nil, submitter, nil, sandboxCfg(), testLogger())

	err := orch.Process(context.Background(), doc)
	require.ErrorIs(t, err, domain.ErrSubmissionTransport)

	stored, _ := repo.GetByID(context.Background(), doc.ID)
	assert.Equal(t, entity.StatusPending, stored.Status)
	assert.Equal(t, entity.StageSubmitting, stored.FailedStage)
	assert.Equal(t, 1, submitter.numCalls, "sin reintento automático")
}

func TestOrchestrator_ResubmitReenviaElMismoXML(t *testing.T) {
	repo := newMemDocRepo()
	doc := testDocument(t, repo)
	submitter := &stubSubmitter{err: errTransport}

	orch := billing.NewSubmissionOrchestrator(
		repo, &stubXMLBuilder{}, nil, nil, submitter, nil, sandboxCfg(), testLogger())

	require.Error(t, orch.Process(context.Background(), doc))
	firstXML := string(submitter.lastXML)

	// El transporte se recupera; el reenvío es manual.
	submitter.err = nil
	require.NoError(t, orch.Resubmit(context.Background(), doc.ID))

	assert.Equal(t, 2, submitter.numCalls)
	assert.Equal(t, firstXML, string(submitter.lastXML),
		"el reenvío usa el XML ya generado, sin reconstruir ni reacuñar clave")

	stored, _ := repo.GetByID(context.Background(), doc.ID)
	assert.Equal(t, entity.StatusCompleted, stored.Status)
	assert.Empty(t, stored.FailedStage)
}

func TestOrchestrator_ResubmitSinXMLRehaceElCicloCompleto(t *testing.T) {
	repo := newMemDocRepo()
	doc := testDocument(t, repo)
	submitter := &stubSubmitter{}

	// En producción sin certificado la firma detiene la emisión antes de
	// generar XML firmado.
	sinCert := billing.NewSubmissionOrchestrator(
		repo, &stubXMLBuilder{}, nil, nil, submitter, nil, productionCfg(), testLogger())
	require.ErrorIs(t, sinCert.Process(context.Background(), doc), domain.ErrSigningUnavailable)

	stored, _ := repo.GetByID(context.Background(), doc.ID)
	require.Equal(t, entity.StatusPending, stored.Status)
	require.Empty(t, stored.XMLSigned)

	// Instalado el certificado, el reenvío manual del mismo comprobante
	// reconstruye y firma sobre la clave original en lugar de rechazarlo.
	conCert := billing.NewSubmissionOrchestrator(
		repo, &stubXMLBuilder{}, &stubSigner{}, &stubCertSource{cert: dummyCert()},
		submitter, nil, productionCfg(), testLogger())
	require.NoError(t, conCert.Resubmit(context.Background(), doc.ID))

	stored, _ = repo.GetByID(context.Background(), doc.ID)
	assert.Equal(t, entity.StatusCompleted, stored.Status)
	assert.Equal(t, doc.Clave, stored.Clave, "la clave no se reacuña en el reintento")
	assert.Contains(t, stored.XMLSigned, "firmado")
	assert.Empty(t, stored.FailedStage)
	assert.Equal(t, 1, submitter.numCalls)
}

func TestOrchestrator_ResubmitSoloAdmitePendientes(t *testing.T) {
	repo := newMemDocRepo()
	doc := testDocument(t, repo)
	doc.Status = entity.StatusCompleted
	doc.XMLSigned = "<Comprobante/>"
	require.NoError(t, repo.Update(context.Background(), doc))

	orch := billing.NewSubmissionOrchestrator(
		repo, &stubXMLBuilder{}, nil, nil, &stubSubmitter{}, nil, sandboxCfg(), testLogger())

	err := orch.Resubmit(context.Background(), doc.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestOrchestrator_RechazoRegistraErrores(t *testing.T) {
	repo := newMemDocRepo()
	doc := testDocument(t, repo)
	submitter := &stubSubmitter{result: &billing.SubmitResult{
		Accepted: false, ReferenceID: "REF-9", Errors: "clave duplicada",
	}}

	orch := billing.NewSubmissionOrchestrator(
		repo, &stubXMLBuilder{}, nil, nil, submitter, nil, sandboxCfg(), testLogger())

	err := orch.Process(context.Background(), doc)
	require.ErrorIs(t, err, domain.ErrSubmissionRejected)

	stored, _ := repo.GetByID(context.Background(), doc.ID)
	assert.Equal(t, entity.StatusRejected, stored.Status)
	assert.Equal(t, "clave duplicada", stored.ResponseErrors)
	assert.Equal(t, "REF-9", stored.ReferenceID)
}

func TestOrchestrator_ErrorDeEnsambladoMarcaLaEtapa(t *testing.T) {
	repo := newMemDocRepo()
	doc := testDocument(t, repo)

	orch := billing.NewSubmissionOrchestrator(
		repo, &stubXMLBuilder{err: errTransport}, nil, nil, nil, nil, sandboxCfg(), testLogger())

	err := orch.Process(context.Background(), doc)
	require.Error(t, err)

	stored, _ := repo.GetByID(context.Background(), doc.ID)
	assert.Equal(t, entity.StageAssembling, stored.FailedStage)
}

func TestOrchestrator_CorreoBestEffortNoCambiaEstado(t *testing.T) {
	repo := newMemDocRepo()
	doc := testDocument(t, repo)
	mailer := &stubMailer{err: errTransport}

	orch := billing.NewSubmissionOrchestrator(
		repo, &stubXMLBuilder{}, nil, nil, nil, mailer, sandboxCfg(), testLogger())

	err := orch.Process(context.Background(), doc)
	require.NoError(t, err, "un fallo de correo no es un fallo de emisión")

	stored, _ := repo.GetByID(context.Background(), doc.ID)
	assert.Equal(t, entity.StatusCompleted, stored.Status)
	assert.Equal(t, 1, stored.EmailAttempts)
	assert.NotEmpty(t, stored.EmailLastError)
	assert.Nil(t, stored.EmailSentAt)
}

func TestOrchestrator_CorreoExitosoQuedaRegistrado(t *testing.T) {
	repo := newMemDocRepo()
	doc := testDocument(t, repo)
	mailer := &stubMailer{}

	orch := billing.NewSubmissionOrchestrator(
		repo, &stubXMLBuilder{}, nil, nil, nil, mailer, sandboxCfg(), testLogger())

	require.NoError(t, orch.Process(context.Background(), doc))

	assert.Equal(t, 1, mailer.sent)
	assert.Equal(t, "ana@example.cr", mailer.lastTo)

	stored, _ := repo.GetByID(context.Background(), doc.ID)
	assert.NotNil(t, stored.EmailSentAt)
	assert.Empty(t, stored.EmailLastError)
}
