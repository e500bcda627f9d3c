package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ticodev/facturele-api/internal/application/dto"
	"github.com/ticodev/facturele-api/internal/domain"
	"github.com/ticodev/facturele-api/internal/domain/entity"
	"github.com/ticodev/facturele-api/internal/domain/hacienda"
	"github.com/ticodev/facturele-api/internal/domain/repository"
	pkghacienda "github.com/ticodev/facturele-api/pkg/hacienda"
	"github.com/ticodev/facturele-api/pkg/logger"
)

// CreateDocumentUseCase emite un comprobante: resuelve receptor y productos,
// acuña clave y consecutivo, ensambla, persiste en PENDIENTE y dispara el
// orquestador de envío en segundo plano.
type CreateDocumentUseCase struct {
	companyRepo  repository.CompanyRepository
	clientRepo   repository.ClientRepository
	productRepo  repository.ProductRepository
	docRepo      repository.DocumentRepository
	numbering    *NumberingService
	assembler    *Assembler
	orchestrator *SubmissionOrchestrator
	rates        RateSource // nil = el tipo de cambio debe venir en el request
	cfg          HaciendaConfig
	envSrc       EnvironmentSource // nil = se usa cfg.Environment fijo
	log          *logger.Logger
}

// NewCreateDocumentUseCase construye el caso de uso.
func NewCreateDocumentUseCase(
	companyRepo repository.CompanyRepository,
	clientRepo repository.ClientRepository,
	productRepo repository.ProductRepository,
	docRepo repository.DocumentRepository,
	numbering *NumberingService,
	assembler *Assembler,
	orchestrator *SubmissionOrchestrator,
	rates RateSource,
	cfg HaciendaConfig,
	log *logger.Logger,
) *CreateDocumentUseCase {
	return &CreateDocumentUseCase{
		companyRepo:  companyRepo,
		clientRepo:   clientRepo,
		productRepo:  productRepo,
		docRepo:      docRepo,
		numbering:    numbering,
		assembler:    assembler,
		orchestrator: orchestrator,
		rates:        rates,
		cfg:          cfg,
		log:          log.WithComponent("emision"),
	}
}

// SetEnvironmentSource conecta el conmutador de ambiente.
func (uc *CreateDocumentUseCase) SetEnvironmentSource(src EnvironmentSource) {
	uc.envSrc = src
}

func (uc *CreateDocumentUseCase) environment() string {
	if uc.envSrc != nil {
		return uc.envSrc.Current()
	}
	return uc.cfg.Environment
}

// Create emite el comprobante y devuelve la respuesta con clave asignada.
// El envío a Hacienda corre en segundo plano; el estado inicial es PENDIENTE.
func (uc *CreateDocumentUseCase) Create(ctx context.Context, companyID string, in dto.CreateDocumentRequest) (*dto.DocumentResponse, error) {
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: items", domain.ErrMissingRequiredField)
	}

	company, err := uc.companyRepo.GetByID(ctx, companyID)
	if err != nil || company == nil {
		return nil, domain.ErrNotFound
	}

	receiver, err := uc.resolveReceiver(ctx, companyID, in)
	if err != nil {
		return nil, err
	}

	lines, err := uc.buildLines(ctx, companyID, in.Items)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	currency, rate, err := uc.resolveRate(ctx, in, now)
	if err != nil {
		return nil, err
	}

	scope := entity.SequenceScope{
		CompanyID:   companyID,
		DocType:     in.DocType,
		Branch:      in.Branch,
		Terminal:    in.Terminal,
		Environment: uc.environment(),
	}
	session := NewDocumentSession(uc.numbering, scope, company.IDNumber)
	key, err := session.EnsureKey(ctx, now, pkghacienda.SituationNormal)
	if err != nil {
		return nil, err
	}

	var charges []entity.OtherCharge
	for _, c := range in.OtherCharges {
		charges = append(charges, entity.OtherCharge{
			ChargeType:  c.ChargeType,
			Description: c.Description,
			Amount:      c.Amount,
		})
	}

	var methods []string
	if in.PaymentMethod != "" {
		methods = []string{in.PaymentMethod}
	}

	doc, warnings, err := uc.assembler.Assemble(AssembleInput{
		Company:        company,
		Receiver:       receiver,
		DocType:        in.DocType,
		Branch:         in.Branch,
		Terminal:       in.Terminal,
		Environment:    uc.environment(),
		Key:            key,
		IssuedAt:       now,
		CurrencyCode:   currency,
		ExchangeRate:   rate,
		SaleCondition:  in.SaleCondition,
		PaymentMethods: methods,
		Lines:          lines,
		OtherCharges:   charges,
		Notes:          in.Notes,
	})
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		uc.log.Warn().Str("clave", key.Clave).Msg(w)
	}

	if err := uc.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}

	uc.orchestrator.ProcessAsync(doc.ID)
	return toDocumentResponse(doc), nil
}

// GetDocument obtiene un comprobante con su detalle completo.
func (uc *CreateDocumentUseCase) GetDocument(ctx context.Context, companyID, id string) (*dto.DocumentResponse, error) {
	doc, err := uc.fetchOwned(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return toDocumentResponse(doc), nil
}

// GetStatus respuesta ligera para el polling del frontend.
func (uc *CreateDocumentUseCase) GetStatus(ctx context.Context, companyID, id string) (*dto.DocumentStatusDTO, error) {
	doc, err := uc.fetchOwned(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return &dto.DocumentStatusDTO{
		ID:          doc.ID,
		Status:      doc.Status,
		Clave:       doc.Clave,
		FailedStage: doc.FailedStage,
		Errors:      doc.ResponseErrors,
	}, nil
}

// ExportXML devuelve el XML (firmado o degradado) y un nombre de archivo.
func (uc *CreateDocumentUseCase) ExportXML(ctx context.Context, companyID, id string) ([]byte, string, error) {
	doc, err := uc.fetchOwned(ctx, companyID, id)
	if err != nil {
		return nil, "", err
	}
	if doc.XMLSigned == "" {
		return nil, "", fmt.Errorf("%w: el comprobante aún no tiene XML", domain.ErrConflict)
	}
	return []byte(doc.XMLSigned), doc.Clave + ".xml", nil
}

// List lista comprobantes de la empresa, opcionalmente filtrados por estado.
func (uc *CreateDocumentUseCase) List(ctx context.Context, companyID, status string, limit, offset int) ([]*dto.DocumentResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	var (
		docs []*entity.Document
		err  error
	)
	if status != "" {
		docs, err = uc.docRepo.ListByStatus(ctx, companyID, status, limit, offset)
	} else {
		docs, err = uc.docRepo.ListByCompany(ctx, companyID, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	out := make([]*dto.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentResponse(d))
	}
	return out, nil
}

// SequenceStatus devuelve el último consecutivo emitido en el alcance, sin
// avanzar el contador. El ambiente es siempre el activo.
func (uc *CreateDocumentUseCase) SequenceStatus(ctx context.Context, companyID, docType string, branch, terminal int) (*dto.SequenceStatusDTO, error) {
	if docType != pkghacienda.DocTypeFactura && docType != pkghacienda.DocTypeTiquete {
		return nil, fmt.Errorf("%w: tipo de documento %q", domain.ErrInvalidInput, docType)
	}
	scope := entity.SequenceScope{
		CompanyID:   companyID,
		DocType:     docType,
		Branch:      branch,
		Terminal:    terminal,
		Environment: uc.environment(),
	}
	last, err := uc.numbering.Peek(ctx, scope)
	if err != nil {
		return nil, err
	}
	return &dto.SequenceStatusDTO{
		DocType:      docType,
		Branch:       branch,
		Terminal:     terminal,
		Environment:  scope.Environment,
		LastSequence: last,
	}, nil
}

// Resubmit reenvía manualmente un comprobante PENDIENTE.
func (uc *CreateDocumentUseCase) Resubmit(ctx context.Context, companyID, id string) error {
	if _, err := uc.fetchOwned(ctx, companyID, id); err != nil {
		return err
	}
	return uc.orchestrator.Resubmit(ctx, id)
}

// ── helpers privados ──────────────────────────────────────────────────────────

func (uc *CreateDocumentUseCase) fetchOwned(ctx context.Context, companyID, id string) (*entity.Document, error) {
	doc, err := uc.docRepo.GetByID(ctx, id)
	if err != nil || doc == nil {
		return nil, domain.ErrNotFound
	}
	if doc.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return doc, nil
}

// resolveReceiver busca el receptor si viene ClientID. En tiquetes es opcional
// y el ensamblador lo sustituye por el consumidor final.
func (uc *CreateDocumentUseCase) resolveReceiver(ctx context.Context, companyID string, in dto.CreateDocumentRequest) (*entity.Receiver, error) {
	if in.ClientID == "" {
		if in.DocType == pkghacienda.DocTypeFactura {
			return nil, fmt.Errorf("%w: receptor", domain.ErrMissingRequiredField)
		}
		return nil, nil
	}
	client, err := uc.clientRepo.GetByID(ctx, in.ClientID)
	if err != nil || client == nil {
		return nil, domain.ErrNotFound
	}
	if client.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return &entity.Receiver{
		Name:     client.Name,
		IDType:   client.IDType,
		IDNumber: client.IDNumber,
		Email:    client.Email,
	}, nil
}

// buildLines traduce los ítems del request a líneas crudas. Cuando viene
// ProductID, CABYS, unidad y tarifa se completan desde el catálogo.
func (uc *CreateDocumentUseCase) buildLines(ctx context.Context, companyID string, items []dto.DocumentItemRequest) ([]hacienda.LineInput, error) {
	lines := make([]hacienda.LineInput, 0, len(items))
	for i, item := range items {
		line := hacienda.LineInput{
			CABYSCode:      item.CABYSCode,
			Description:    item.Description,
			Quantity:       item.Quantity,
			UnitMeasure:    item.UnitMeasure,
			UnitPrice:      item.UnitPrice,
			Discount:       item.Discount,
			DiscountReason: item.DiscountReason,
			TaxRate:        item.TaxRate,
		}
		if item.ProductID != "" {
			product, err := uc.productRepo.GetByID(ctx, item.ProductID)
			if err != nil || product == nil {
				return nil, fmt.Errorf("%w: producto del ítem %d", domain.ErrNotFound, i)
			}
			if product.CompanyID != companyID {
				return nil, domain.ErrForbidden
			}
			if line.CABYSCode == "" {
				line.CABYSCode = product.CABYSCode
			}
			if line.Description == "" {
				line.Description = product.Name
			}
			if line.UnitMeasure == "" {
				line.UnitMeasure = product.UnitMeasure
			}
			if line.UnitPrice.IsZero() {
				line.UnitPrice = product.Price
			}
			if line.TaxRate.IsZero() {
				line.TaxRate = product.TaxRate
			}
		}
		if line.UnitMeasure == "" {
			line.UnitMeasure = pkghacienda.UnitUnidad
		}
		if item.Exemption != nil {
			ex := &entity.Exemption{
				DocType:     item.Exemption.DocType,
				DocNumber:   item.Exemption.DocNumber,
				Institution: item.Exemption.Institution,
				Percentage:  item.Exemption.Percentage,
			}
			if item.Exemption.IssueDate != "" {
				if d, err := time.Parse("2006-01-02", item.Exemption.IssueDate); err == nil {
					ex.IssueDate = d
				}
			}
			line.Exemption = ex
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// resolveRate decide moneda y tipo de cambio. Para monedas distintas del
// colón, un tipo de cambio explícito en el request tiene prioridad; si no
// viene, se consulta al BCCR.
func (uc *CreateDocumentUseCase) resolveRate(ctx context.Context, in dto.CreateDocumentRequest, date time.Time) (string, decimal.Decimal, error) {
	currency := in.CurrencyCode
	if currency == "" {
		currency = hacienda.BaseCurrency
	}
	if currency == hacienda.BaseCurrency {
		return currency, hacienda.BaseRate, nil
	}
	if in.ExchangeRate.GreaterThan(decimal.Zero) {
		return currency, in.ExchangeRate, nil
	}
	if uc.rates == nil {
		return "", decimal.Zero, fmt.Errorf("%w: sin tipo de cambio para %s", domain.ErrInvalidExchangeRate, currency)
	}
	rate, err := uc.rates.SellingRate(ctx, currency, date)
	if err != nil {
		return "", decimal.Zero, fmt.Errorf("%w: consulta BCCR: %v", domain.ErrInvalidExchangeRate, err)
	}
	return currency, rate, nil
}

func toDocumentResponse(doc *entity.Document) *dto.DocumentResponse {
	resp := &dto.DocumentResponse{
		ID:           doc.ID,
		CompanyID:    doc.CompanyID,
		DocType:      doc.DocType,
		Clave:        doc.Clave,
		Consecutive:  doc.Consecutive,
		Environment:  doc.Environment,
		IssuedAt:     doc.IssuedAt.Format(time.RFC3339),
		ReceiverName: doc.Receiver.Name,
		CurrencyCode: doc.Summary.CurrencyCode,
		ExchangeRate: doc.Summary.ExchangeRate,
		NetSales:     doc.Summary.NetSales,
		Tax:          doc.Summary.Tax,
		GrandTotal:   doc.Summary.GrandTotal,
		Status:       doc.Status,
		FailedStage:  doc.FailedStage,
		Lines:        make([]dto.DocumentLineResponse, 0, len(doc.Lines)),
	}
	for _, l := range doc.Lines {
		resp.Lines = append(resp.Lines, dto.DocumentLineResponse{
			Number:      l.Number,
			CABYSCode:   l.CABYSCode,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Discount:    l.Discount,
			TaxRate:     l.TaxRate,
			TaxAmount:   l.TaxAmount,
			Subtotal:    l.Subtotal,
			LineTotal:   l.LineTotal,
		})
	}
	return resp
}
