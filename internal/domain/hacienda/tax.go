// Cálculo de impuestos y totales por línea y por comprobante.
// Funciones puras sobre decimal: sin efectos, sin estado.

package hacienda

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ticodev/facturele-api/internal/domain"
	"github.com/ticodev/facturele-api/internal/domain/entity"
	pkghacienda "github.com/ticodev/facturele-api/pkg/hacienda"
)

var hundred = decimal.NewFromInt(100)

// tarifaCodes tabla fija tarifa → código de tarifa.
var tarifaCodes = map[string]string{
	"1":  pkghacienda.TarifaReducida1,
	"2":  pkghacienda.TarifaReducida2,
	"4":  pkghacienda.TarifaReducida4,
	"8":  pkghacienda.TarifaReducida8,
	"13": pkghacienda.TarifaGeneral13,
}

// TaxRateCode devuelve el código de tarifa para el porcentaje dado.
// Un porcentaje fuera de la tabla cae al código de la tarifa general del 13 %;
// defaulted indica al caller que debe advertirlo en el log.
func TaxRateCode(rate decimal.Decimal) (code string, defaulted bool) {
	if c, ok := tarifaCodes[rate.String()]; ok {
		return c, false
	}
	return pkghacienda.TarifaGeneral13, true
}

// LineInput datos crudos de una línea antes del cálculo.
type LineInput struct {
	CABYSCode      string
	Description    string
	Quantity       decimal.Decimal
	UnitMeasure    string
	UnitPrice      decimal.Decimal // En la moneda del comprobante
	BasePrice      decimal.Decimal // En colones; lo fija NormalizeLines una sola vez
	Discount       decimal.Decimal
	DiscountReason string
	TaxRate        decimal.Decimal    // Porcentaje
	Exemption      *entity.Exemption // nil si no aplica
	PharmaForm     string
	SerialNumber   string
}

// ComputeLine valida la línea y calcula subtotal, impuesto y total.
//
//	subtotal  = cantidad*precio - descuento
//	impuesto  = subtotal * tarifa/100  (0 si la línea está 100 % exonerada; el
//	            monto exonerado se registra aparte en la exoneración)
//	total     = subtotal + impuesto
//
// Falla con ErrInvalidLineItem si cantidad <= 0, precio < 0 o el descuento
// excede el bruto de la línea.
func ComputeLine(in LineInput) (entity.LineItem, error) {
	if !in.Quantity.IsPositive() {
		return entity.LineItem{}, fmt.Errorf("%w: cantidad debe ser mayor que cero", domain.ErrInvalidLineItem)
	}
	if in.UnitPrice.IsNegative() {
		return entity.LineItem{}, fmt.Errorf("%w: precio unitario negativo", domain.ErrInvalidLineItem)
	}
	if in.Discount.IsNegative() {
		return entity.LineItem{}, fmt.Errorf("%w: descuento negativo", domain.ErrInvalidLineItem)
	}
	gross := in.Quantity.Mul(in.UnitPrice)
	if in.Discount.GreaterThan(gross) {
		return entity.LineItem{}, fmt.Errorf("%w: descuento %s excede el bruto %s", domain.ErrInvalidLineItem, in.Discount, gross)
	}

	subtotal := gross.Sub(in.Discount)
	rateCode, _ := TaxRateCode(in.TaxRate)

	tax := subtotal.Mul(in.TaxRate).Div(hundred).Round(5)
	var exemption *entity.Exemption
	if in.Exemption != nil {
		ex := *in.Exemption
		if ex.Percentage.GreaterThanOrEqual(hundred) {
			// Exoneración total: el impuesto se fuerza a cero y el monto
			// exonerado queda registrado para el resumen.
			ex.ExemptedAmount = tax
			tax = decimal.Zero
		} else {
			ex.ExemptedAmount = tax.Mul(ex.Percentage).Div(hundred).Round(5)
			tax = tax.Sub(ex.ExemptedAmount)
		}
		exemption = &ex
	}

	return entity.LineItem{
		CABYSCode:      in.CABYSCode,
		Description:    in.Description,
		Quantity:       in.Quantity,
		UnitMeasure:    in.UnitMeasure,
		UnitPrice:      in.UnitPrice,
		BasePrice:      in.BasePrice,
		Discount:       in.Discount,
		DiscountReason: in.DiscountReason,
		TaxCode:        pkghacienda.TaxCodeIVA,
		TaxRateCode:    rateCode,
		TaxRate:        in.TaxRate,
		TaxAmount:      tax,
		Subtotal:       subtotal,
		LineTotal:      subtotal.Add(tax),
		Exemption:      exemption,
		PharmaForm:     in.PharmaForm,
		SerialNumber:   in.SerialNumber,
	}, nil
}

// ComputeSummary agrega los totales del comprobante a partir de las líneas ya
// calculadas y los otros cargos. GrandTotal = NetSales + Tax + OtrosCargos.
func ComputeSummary(lines []entity.LineItem, otherCharges []entity.OtherCharge, currency string, rate decimal.Decimal) entity.DocumentSummary {
	var gross, discounts, tax, exonerated decimal.Decimal
	for _, l := range lines {
		gross = gross.Add(l.Quantity.Mul(l.UnitPrice))
		discounts = discounts.Add(l.Discount)
		tax = tax.Add(l.TaxAmount)
		if l.Exemption != nil {
			exonerated = exonerated.Add(l.Exemption.ExemptedAmount)
		}
	}
	var other decimal.Decimal
	for _, c := range otherCharges {
		other = other.Add(c.Amount)
	}
	net := gross.Sub(discounts)
	return entity.DocumentSummary{
		CurrencyCode:      currency,
		ExchangeRate:      rate,
		GrossSales:        gross,
		Discounts:         discounts,
		NetSales:          net,
		Tax:               tax,
		Exonerated:        exonerated,
		OtherChargesTotal: other,
		GrandTotal:        net.Add(tax).Add(other),
	}
}
