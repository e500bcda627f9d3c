package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ticodev/facturele-api/internal/domain"
	"github.com/ticodev/facturele-api/internal/domain/entity"
	"github.com/ticodev/facturele-api/internal/domain/hacienda"
	pkghacienda "github.com/ticodev/facturele-api/pkg/hacienda"
)

// AssembleInput datos para ensamblar un comprobante canónico.
// Key debe venir ya acuñada (DocumentSession.EnsureKey); el ensamblador no
// acuña claves.
type AssembleInput struct {
	Company       *entity.Company
	Receiver      *entity.Receiver // ignorado en tiquetes: siempre consumidor final
	DocType       string
	Branch        int
	Terminal      int
	Environment   string
	Key           *entity.DocumentKey
	IssuedAt      time.Time
	CurrencyCode  string
	ExchangeRate  decimal.Decimal
	SaleCondition string
	PaymentMethods []string
	Lines         []hacienda.LineInput
	OtherCharges  []entity.OtherCharge
	Notes         string
}

// Assembler construye el comprobante canónico: valida campos obligatorios,
// normaliza moneda, calcula líneas y totales y arma el entity.Document.
//
// Los tiquetes fuerzan al receptor al consumidor final genérico y descartan
// exoneraciones: una exoneración exige identificar al beneficiario, cosa que
// un tiquete no hace.
type Assembler struct{}

// NewAssembler construye el ensamblador.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Assemble ensambla el comprobante. Devuelve además las advertencias no
// fatales acumuladas (tarifas fuera de tabla, exoneraciones descartadas) para
// que el caller las registre en el log.
func (a *Assembler) Assemble(in AssembleInput) (*entity.Document, []string, error) {
	var warnings []string

	if in.DocType != pkghacienda.DocTypeFactura && in.DocType != pkghacienda.DocTypeTiquete {
		return nil, nil, fmt.Errorf("%w: tipo de documento %q", domain.ErrInvalidInput, in.DocType)
	}
	if in.Key == nil || in.Key.Clave == "" {
		return nil, nil, fmt.Errorf("%w: clave", domain.ErrMissingRequiredField)
	}
	if err := a.validateIssuer(in.Company); err != nil {
		return nil, nil, err
	}
	if len(in.Lines) == 0 {
		return nil, nil, fmt.Errorf("%w: detalle", domain.ErrMissingRequiredField)
	}

	receiver, recvWarnings, err := a.resolveReceiver(in)
	if err != nil {
		return nil, nil, err
	}
	warnings = append(warnings, recvWarnings...)

	currency := in.CurrencyCode
	if currency == "" {
		currency = hacienda.BaseCurrency
	}
	lines := in.Lines
	if in.DocType == pkghacienda.DocTypeTiquete {
		lines = stripExemptions(lines, &warnings)
	}
	lines, err = hacienda.NormalizeLines(lines, currency, in.ExchangeRate)
	if err != nil {
		return nil, nil, err
	}

	items := make([]entity.LineItem, 0, len(lines))
	for i, li := range lines {
		if li.CABYSCode == "" {
			return nil, nil, fmt.Errorf("%w: detalle[%d].codigoCABYS", domain.ErrMissingRequiredField, i)
		}
		if li.Description == "" {
			return nil, nil, fmt.Errorf("%w: detalle[%d].detalle", domain.ErrMissingRequiredField, i)
		}
		if _, defaulted := hacienda.TaxRateCode(li.TaxRate); defaulted {
			warnings = append(warnings,
				fmt.Sprintf("detalle[%d]: tarifa %s fuera de tabla, se usa la tarifa general del 13 %%", i, li.TaxRate))
		}
		item, err := hacienda.ComputeLine(li)
		if err != nil {
			return nil, nil, fmt.Errorf("detalle[%d]: %w", i, err)
		}
		item.Number = i + 1
		items = append(items, item)
	}

	rate := hacienda.EffectiveRate(currency, in.ExchangeRate)
	summary := hacienda.ComputeSummary(items, in.OtherCharges, currency, rate)

	saleCondition := in.SaleCondition
	if saleCondition == "" {
		saleCondition = pkghacienda.SaleConditionContado
	}
	methods := in.PaymentMethods
	if len(methods) == 0 {
		methods = []string{pkghacienda.PaymentMethodEfectivo}
	}

	now := time.Now()
	doc := &entity.Document{
		ID:             uuid.New().String(),
		CompanyID:      in.Company.ID,
		DocType:        in.DocType,
		Branch:         in.Branch,
		Terminal:       in.Terminal,
		Environment:    in.Environment,
		Clave:          in.Key.Clave,
		Consecutive:    in.Key.Consecutive,
		IssuedAt:       in.IssuedAt,
		Issuer:         *in.Company,
		Receiver:       receiver,
		SaleCondition:  saleCondition,
		PaymentMethods: methods,
		Lines:          items,
		OtherCharges:   in.OtherCharges,
		Summary:        summary,
		Notes:          in.Notes,
		Status:         entity.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return doc, warnings, nil
}

// validateIssuer valida los campos del emisor exigidos por el formato v4.4.
// Los errores incluyen la ruta del campo faltante para que el mensaje HTTP
// sea accionable.
func (a *Assembler) validateIssuer(c *entity.Company) error {
	if c == nil {
		return fmt.Errorf("%w: emisor", domain.ErrMissingRequiredField)
	}
	switch {
	case c.Name == "":
		return fmt.Errorf("%w: emisor.nombre", domain.ErrMissingRequiredField)
	case c.IDType == "":
		return fmt.Errorf("%w: emisor.identificacion.tipo", domain.ErrMissingRequiredField)
	case c.IDNumber == "":
		return fmt.Errorf("%w: emisor.identificacion.numero", domain.ErrMissingRequiredField)
	case c.EconomicActivity == "":
		return fmt.Errorf("%w: emisor.codigoActividad", domain.ErrMissingRequiredField)
	case c.Province == "" || c.Canton == "" || c.District == "":
		return fmt.Errorf("%w: emisor.ubicacion", domain.ErrMissingRequiredField)
	}
	return nil
}

// resolveReceiver decide el receptor según el tipo de documento. La factura
// exige un receptor identificado; el tiquete usa siempre el consumidor final
// genérico, aunque en la entrada venga un receptor.
func (a *Assembler) resolveReceiver(in AssembleInput) (entity.Receiver, []string, error) {
	if in.DocType == pkghacienda.DocTypeTiquete {
		var warnings []string
		if in.Receiver != nil {
			warnings = append(warnings,
				"receptor descartado, el tiquete se emite al consumidor final")
		}
		return entity.Receiver{
			Name:     pkghacienda.GenericConsumerName,
			IDType:   pkghacienda.IDTypeFisica,
			IDNumber: pkghacienda.GenericConsumerID,
		}, warnings, nil
	}

	r := in.Receiver
	if r == nil {
		return entity.Receiver{}, nil, fmt.Errorf("%w: receptor", domain.ErrMissingRequiredField)
	}
	switch {
	case r.Name == "":
		return entity.Receiver{}, nil, fmt.Errorf("%w: receptor.nombre", domain.ErrMissingRequiredField)
	case r.IDType == "":
		return entity.Receiver{}, nil, fmt.Errorf("%w: receptor.identificacion.tipo", domain.ErrMissingRequiredField)
	case r.IDNumber == "":
		return entity.Receiver{}, nil, fmt.Errorf("%w: receptor.identificacion.numero", domain.ErrMissingRequiredField)
	}
	return *r, nil, nil
}

// stripExemptions descarta las exoneraciones de un tiquete, anotando una
// advertencia por cada una.
func stripExemptions(lines []hacienda.LineInput, warnings *[]string) []hacienda.LineInput {
	out := make([]hacienda.LineInput, len(lines))
	copy(out, lines)
	for i := range out {
		if out[i].Exemption != nil {
			*warnings = append(*warnings,
				fmt.Sprintf("detalle[%d]: exoneración descartada, los tiquetes no la admiten", i))
			out[i].Exemption = nil
		}
	}
	return out
}
