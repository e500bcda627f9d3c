package hacienda_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticodev/facturele-api/internal/domain"
	"github.com/ticodev/facturele-api/internal/domain/entity"
	"github.com/ticodev/facturele-api/internal/domain/hacienda"
	pkghacienda "github.com/ticodev/facturele-api/pkg/hacienda"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func lineaBase() hacienda.LineInput {
	return hacienda.LineInput{
		CABYSCode:   "8399000000000",
		Description: "Servicio profesional",
		Quantity:    dec("2"),
		UnitMeasure: pkghacienda.UnitUnidad,
		UnitPrice:   dec("1000"),
		Discount:    decimal.Zero,
		TaxRate:     dec("13"),
	}
}

// Escenario de referencia: {cantidad 2, precio 1000, sin descuento, IVA 13 %}
// → subtotal 2000, impuesto 260, total 2260.
func TestComputeLine_EscenarioReferencia(t *testing.T) {
	line, err := hacienda.ComputeLine(lineaBase())
	require.NoError(t, err)

	assert.True(t, line.Subtotal.Equal(dec("2000")), "subtotal = cantidad*precio - descuento")
	assert.True(t, line.TaxAmount.Equal(dec("260")), "impuesto = subtotal * 13 %%")
	assert.True(t, line.LineTotal.Equal(dec("2260")), "total = subtotal + impuesto")
	assert.Equal(t, pkghacienda.TarifaGeneral13, line.TaxRateCode)
}

// Propiedad: para toda línea válida, subtotal + impuesto == total y el impuesto no es negativo.
func TestComputeLine_InvarianteSubtotalMasImpuesto(t *testing.T) {
	cases := []hacienda.LineInput{
		lineaBase(),
		{Quantity: dec("3"), UnitPrice: dec("499.99"), Discount: dec("100"), TaxRate: dec("4")},
		{Quantity: dec("0.5"), UnitPrice: dec("12000"), Discount: decimal.Zero, TaxRate: dec("1")},
		{Quantity: dec("10"), UnitPrice: dec("0"), Discount: decimal.Zero, TaxRate: dec("13")},
	}
	for _, in := range cases {
		line, err := hacienda.ComputeLine(in)
		require.NoError(t, err)
		assert.True(t, line.Subtotal.Add(line.TaxAmount).Equal(line.LineTotal),
			"subtotal+impuesto debe igualar el total de línea")
		assert.False(t, line.TaxAmount.IsNegative(), "el impuesto nunca es negativo")
	}
}

func TestComputeLine_DescuentoRestaDelSubtotal(t *testing.T) {
	in := lineaBase()
	in.Discount = dec("500")
	in.DiscountReason = "Promoción"

	line, err := hacienda.ComputeLine(in)
	require.NoError(t, err)
	assert.True(t, line.Subtotal.Equal(dec("1500")))
	assert.True(t, line.TaxAmount.Equal(dec("195")))
}

func TestComputeLine_ExoneracionTotalFuerzaImpuestoCero(t *testing.T) {
	in := lineaBase()
	in.Exemption = &entity.Exemption{
		DocType:    "03",
		DocNumber:  "EX-2026-001",
		Percentage: dec("100"),
	}

	line, err := hacienda.ComputeLine(in)
	require.NoError(t, err)
	assert.True(t, line.TaxAmount.IsZero(), "con exoneración del 100 %% el impuesto se fuerza a cero")
	require.NotNil(t, line.Exemption)
	assert.True(t, line.Exemption.ExemptedAmount.Equal(dec("260")),
		"el monto exonerado se registra aparte")
	assert.True(t, line.LineTotal.Equal(dec("2000")))
}

func TestComputeLine_ExoneracionParcial(t *testing.T) {
	in := lineaBase()
	in.Exemption = &entity.Exemption{Percentage: dec("50")}

	line, err := hacienda.ComputeLine(in)
	require.NoError(t, err)
	assert.True(t, line.TaxAmount.Equal(dec("130")))
	assert.True(t, line.Exemption.ExemptedAmount.Equal(dec("130")))
}

// ── Tabla tarifa → código ─────────────────────────────────────────────────────

func TestTaxRateCode_TablaFija(t *testing.T) {
	cases := map[string]string{
		"1":  "01",
		"2":  "02",
		"4":  "03",
		"8":  "04",
		"13": "08",
	}
	for rate, want := range cases {
		code, defaulted := hacienda.TaxRateCode(dec(rate))
		assert.Equal(t, want, code, "tarifa %s", rate)
		assert.False(t, defaulted)
	}
}

func TestTaxRateCode_TarifaDesconocidaCaeAl13(t *testing.T) {
	code, defaulted := hacienda.TaxRateCode(dec("7"))
	assert.Equal(t, pkghacienda.TarifaGeneral13, code)
	assert.True(t, defaulted, "una tarifa fuera de tabla debe marcarse para advertir en el log")
}

// ── Errores de validación ─────────────────────────────────────────────────────

func TestComputeLine_ErrorSiCantidadCero(t *testing.T) {
	in := lineaBase()
	in.Quantity = decimal.Zero
	_, err := hacienda.ComputeLine(in)
	assert.ErrorIs(t, err, domain.ErrInvalidLineItem)
}

func TestComputeLine_ErrorSiDescuentoExcedeBruto(t *testing.T) {
	in := lineaBase()
	in.Discount = dec("2001")
	_, err := hacienda.ComputeLine(in)
	assert.ErrorIs(t, err, domain.ErrInvalidLineItem)
}

func TestComputeLine_ErrorSiPrecioNegativo(t *testing.T) {
	in := lineaBase()
	in.UnitPrice = dec("-1")
	_, err := hacienda.ComputeLine(in)
	assert.ErrorIs(t, err, domain.ErrInvalidLineItem)
}

// ── Resumen ───────────────────────────────────────────────────────────────────

func TestComputeSummary_TotalesCoherentes(t *testing.T) {
	l1, err := hacienda.ComputeLine(lineaBase())
	require.NoError(t, err)
	in2 := lineaBase()
	in2.Discount = dec("500")
	l2, err := hacienda.ComputeLine(in2)
	require.NoError(t, err)

	charges := []entity.OtherCharge{{ChargeType: "06", Description: "Timbre", Amount: dec("25")}}
	s := hacienda.ComputeSummary([]entity.LineItem{l1, l2}, charges, "CRC", hacienda.BaseRate)

	assert.True(t, s.GrossSales.Equal(dec("4000")))
	assert.True(t, s.Discounts.Equal(dec("500")))
	assert.True(t, s.NetSales.Equal(dec("3500")))
	assert.True(t, s.Tax.Equal(dec("455")))
	assert.True(t, s.OtherChargesTotal.Equal(dec("25")))
	assert.True(t, s.GrandTotal.Equal(s.NetSales.Add(s.Tax).Add(s.OtherChargesTotal)),
		"grandTotal = ventaNeta + impuesto + otrosCargos")
}
