package billing_test

import (
	"context"
	"crypto/tls"
	"errors"
	"sync"
	"time"

	"github.com/ticodev/facturele-api/internal/application/billing"
	"github.com/ticodev/facturele-api/internal/domain/entity"
	"github.com/ticodev/facturele-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles de prueba compartidos por los tests del paquete.
// ──────────────────────────────────────────────────────────────────────────────

// memSequenceRepo repositorio de contadores en memoria, seguro para concurrencia.
type memSequenceRepo struct {
	mu       sync.Mutex
	counters map[string]int64
	getErr   error
	setErr   error
}

func newMemSequenceRepo() *memSequenceRepo {
	return &memSequenceRepo{counters: make(map[string]int64)}
}

func (r *memSequenceRepo) GetCounter(_ context.Context, scope entity.SequenceScope) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return 0, r.getErr
	}
	return r.counters[scope.Key()], nil
}

func (r *memSequenceRepo) SetCounter(_ context.Context, scope entity.SequenceScope, value int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setErr != nil {
		return r.setErr
	}
	r.counters[scope.Key()] = value
	return nil
}

// memDocRepo repositorio de comprobantes en memoria.
type memDocRepo struct {
	mu   sync.Mutex
	docs map[string]*entity.Document
}

func newMemDocRepo() *memDocRepo {
	return &memDocRepo{docs: make(map[string]*entity.Document)}
}

func (r *memDocRepo) Create(_ context.Context, doc *entity.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memDocRepo) GetByID(_ context.Context, id string) (*entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, nil
	}
	cp := *doc
	return &cp, nil
}

func (r *memDocRepo) GetByClave(_ context.Context, clave string) (*entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs {
		if d.Clave == clave {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memDocRepo) Update(_ context.Context, doc *entity.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memDocRepo) ListByCompany(_ context.Context, companyID string, _, _ int) ([]*entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Document
	for _, d := range r.docs {
		if d.CompanyID == companyID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memDocRepo) ListByStatus(_ context.Context, companyID, status string, _, _ int) ([]*entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Document
	for _, d := range r.docs {
		if d.CompanyID == companyID && d.Status == status {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

// stubXMLBuilder devuelve un XML fijo o un error.
type stubXMLBuilder struct {
	out []byte
	err error
}

func (b *stubXMLBuilder) Build(_ *entity.Document) ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.out != nil {
		return b.out, nil
	}
	return []byte("<Comprobante/>"), nil
}

// stubSigner antepone una marca al XML para distinguir firmado de no firmado.
type stubSigner struct{ err error }

func (s *stubSigner) Sign(xmlBytes []byte, _ tls.Certificate) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append([]byte("<!--firmado-->"), xmlBytes...), nil
}

// stubCertSource entrega un certificado de juguete o un error.
type stubCertSource struct {
	cert tls.Certificate
	err  error
}

func (c *stubCertSource) Load() (tls.Certificate, error) {
	if c.err != nil {
		return tls.Certificate{}, c.err
	}
	return c.cert, nil
}

// dummyCert certificado mínimo que pasa la validación de no-vacío.
func dummyCert() tls.Certificate {
	return tls.Certificate{
		Certificate: [][]byte{{0x01}},
		PrivateKey:  struct{}{},
	}
}

// stubSubmitter registra el último envío y responde lo configurado.
type stubSubmitter struct {
	mu       sync.Mutex
	result   *billing.SubmitResult
	err      error
	lastXML  []byte
	lastEnv  string
	numCalls int
}

func (s *stubSubmitter) Submit(_ context.Context, _ string, signedXML []byte, environment string) (*billing.SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.numCalls++
	s.lastXML = signedXML
	s.lastEnv = environment
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	return &billing.SubmitResult{Accepted: true, ReferenceID: "REF-1"}, nil
}

// stubMailer cuenta envíos y falla si se le pide.
type stubMailer struct {
	mu    sync.Mutex
	sent  int
	err   error
	lastTo string
}

func (m *stubMailer) SendDocument(_ context.Context, to, _ string, _ []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent++
	m.lastTo = to
	return m.err
}

var errTransport = errors.New("connection refused")

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "production", Level: "error"})
}

func testScope() entity.SequenceScope {
	return entity.SequenceScope{
		CompanyID:   "emp-1",
		DocType:     "01",
		Branch:      1,
		Terminal:    1,
		Environment: "sandbox",
	}
}

func testCompany() *entity.Company {
	return &entity.Company{
		ID:               "emp-1",
		Name:             "Comercial La Sabana S.A.",
		IDType:           "02",
		IDNumber:         "3101123456",
		EconomicActivity: "620100",
		Province:         "1",
		Canton:           "01",
		District:         "08",
		Email:            "facturas@lasabana.cr",
	}
}

func testKey() *entity.DocumentKey {
	return &entity.DocumentKey{
		Clave:       "50615032600310112345600100001010000000042112345678",
		Consecutive: "00100001010000000042",
		Sequence:    42,
		MintedAt:    time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC),
	}
}
