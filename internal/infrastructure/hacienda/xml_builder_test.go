package hacienda_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticodev/facturele-api/internal/domain/entity"
	infra "github.com/ticodev/facturele-api/internal/infrastructure/hacienda"
	pkghacienda "github.com/ticodev/facturele-api/pkg/hacienda"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func documentoBase() *entity.Document {
	issuedAt := time.Date(2026, 3, 15, 10, 30, 0, 0, time.FixedZone("CST", -6*3600))
	return &entity.Document{
		ID:          "doc-1",
		CompanyID:   "emp-1",
		DocType:     pkghacienda.DocTypeFactura,
		Environment: pkghacienda.EnvironmentSandbox,
		Clave:       "50615032600310112345600100001010000000042112345678",
		Consecutive: "00100001010000000042",
		IssuedAt:    issuedAt,
		Issuer: entity.Company{
			ID:               "emp-1",
			Name:             "Comercial Tica S.A.",
			IDType:           pkghacienda.IDTypeJuridica,
			IDNumber:         "3101123456",
			EconomicActivity: "620100",
			Province:         "1",
			Canton:           "01",
			District:         "02",
			Phone:            "22223333",
			Email:            "facturas@comercialtica.cr",
		},
		Receiver: entity.Receiver{
			Name:     "Ana Rojas",
			IDType:   pkghacienda.IDTypeFisica,
			IDNumber: "102340567",
			Email:    "ana@example.cr",
		},
		SaleCondition:  pkghacienda.SaleConditionContado,
		PaymentMethods: []string{pkghacienda.PaymentMethodEfectivo},
		Lines: []entity.LineItem{
			{
				Number:      1,
				CABYSCode:   "8399000000000",
				Description: "Servicio profesional",
				Quantity:    dec("2"),
				UnitMeasure: "Sp",
				UnitPrice:   dec("1000"),
				BasePrice:   dec("1000"),
				TaxCode:     pkghacienda.TaxCodeIVA,
				TaxRateCode: pkghacienda.TarifaGeneral13,
				TaxRate:     dec("13"),
				TaxAmount:   dec("260"),
				Subtotal:    dec("2000"),
				LineTotal:   dec("2260"),
			},
		},
		Summary: entity.DocumentSummary{
			CurrencyCode: "CRC",
			ExchangeRate: dec("1"),
			GrossSales:   dec("2000"),
			NetSales:     dec("2000"),
			Tax:          dec("260"),
			GrandTotal:   dec("2260"),
		},
		Status: entity.StatusPending,
	}
}

func TestBuild_FacturaElectronica(t *testing.T) {
	builder := infra.NewXMLBuilderService()
	doc := documentoBase()

	out, err := builder.Build(doc)
	require.NoError(t, err)

	s := string(out)
	assert.True(t, strings.HasPrefix(s, "<?xml"), "el documento lleva declaración XML")
	assert.Contains(t, s, `<FacturaElectronica xmlns="`+infra.NsFactura+`"`, "raíz de factura v4.4")
	assert.Contains(t, s, "<Clave>50615032600310112345600100001010000000042112345678</Clave>")
	assert.Contains(t, s, "<NumeroConsecutivo>00100001010000000042</NumeroConsecutivo>")
	assert.Contains(t, s, "<FechaEmision>2026-03-15T10:30:00-06:00</FechaEmision>")
	assert.Contains(t, s, "<CodigoActividad>620100</CodigoActividad>")
	assert.Contains(t, s, "<Nombre>Comercial Tica S.A.</Nombre>")
	assert.Contains(t, s, "<Numero>3101123456</Numero>")
	assert.Contains(t, s, "<Receptor>", "la factura lleva receptor identificado")
	assert.Contains(t, s, "<Nombre>Ana Rojas</Nombre>")
	assert.Contains(t, s, "<CondicionVenta>01</CondicionVenta>")
	assert.Contains(t, s, "<MedioPago>01</MedioPago>")
	assert.Contains(t, s, "<Codigo>8399000000000</Codigo>")
	assert.Contains(t, s, "<Cantidad>2.000</Cantidad>")
	assert.Contains(t, s, "<PrecioUnitario>1000.00000</PrecioUnitario>")
	assert.Contains(t, s, "<MontoTotal>2000.00000</MontoTotal>")
	assert.Contains(t, s, "<CodigoTarifa>08</CodigoTarifa>")
	assert.Contains(t, s, "<Monto>260.00000</Monto>")
	assert.Contains(t, s, "<MontoTotalLinea>2260.00000</MontoTotalLinea>")
	assert.Contains(t, s, "<CodigoMoneda>CRC</CodigoMoneda>")
	assert.Contains(t, s, "<TipoCambio>1.00000</TipoCambio>")
	assert.Contains(t, s, "<TotalComprobante>2260.00000</TotalComprobante>")
	assert.NotContains(t, s, "<TotalExonerado>", "sin exoneración no se emite el total exonerado")
}

func TestBuild_TiqueteElectronico(t *testing.T) {
	builder := infra.NewXMLBuilderService()
	doc := documentoBase()
	doc.DocType = pkghacienda.DocTypeTiquete
	doc.Receiver = entity.Receiver{Name: pkghacienda.GenericConsumerName}

	out, err := builder.Build(doc)
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, `<TiqueteElectronico xmlns="`+infra.NsTiquete+`"`, "raíz de tiquete v4.2")
	assert.Contains(t, s, "<Nombre>"+pkghacienda.GenericConsumerName+"</Nombre>")
	assert.NotContains(t, s, "<Identificacion>\n      <Tipo></Tipo>", "el consumidor genérico no lleva identificación")
}

func TestBuild_ExoneracionYOtrosCargos(t *testing.T) {
	builder := infra.NewXMLBuilderService()
	doc := documentoBase()
	doc.Lines[0].Exemption = &entity.Exemption{
		DocType:        "03",
		DocNumber:      "EX-2026-001",
		Institution:    "Ministerio de Hacienda",
		IssueDate:      time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		Percentage:     dec("100"),
		ExemptedAmount: dec("260"),
	}
	doc.Lines[0].TaxAmount = decimal.Zero
	doc.Lines[0].LineTotal = dec("2000")
	doc.Summary.Tax = decimal.Zero
	doc.Summary.Exonerated = dec("260")
	doc.OtherCharges = []entity.OtherCharge{
		{ChargeType: "06", Description: "Timbre de Cruz Roja", Amount: dec("25")},
	}
	doc.Summary.OtherChargesTotal = dec("25")
	doc.Summary.GrandTotal = dec("2025")

	out, err := builder.Build(doc)
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, "<NumeroDocumento>EX-2026-001</NumeroDocumento>")
	assert.Contains(t, s, "<PorcentajeExoneracion>100</PorcentajeExoneracion>")
	assert.Contains(t, s, "<MontoExoneracion>260.00000</MontoExoneracion>")
	assert.Contains(t, s, "<TotalExonerado>260.00000</TotalExonerado>")
	assert.Contains(t, s, "<Detalle>Timbre de Cruz Roja</Detalle>")
	assert.Contains(t, s, "<TotalOtrosCargos>25.00000</TotalOtrosCargos>")
	assert.Contains(t, s, "<TotalComprobante>2025.00000</TotalComprobante>")
}

func TestBuild_Errores(t *testing.T) {
	builder := infra.NewXMLBuilderService()

	t.Run("comprobante nulo", func(t *testing.T) {
		_, err := builder.Build(nil)
		assert.Error(t, err)
	})

	t.Run("tipo sin esquema", func(t *testing.T) {
		doc := documentoBase()
		doc.DocType = "09"
		_, err := builder.Build(doc)
		assert.ErrorContains(t, err, "sin esquema")
	})

	t.Run("sin clave acuñada", func(t *testing.T) {
		doc := documentoBase()
		doc.Clave = ""
		_, err := builder.Build(doc)
		assert.ErrorContains(t, err, "clave")
	})

	t.Run("sin líneas", func(t *testing.T) {
		doc := documentoBase()
		doc.Lines = nil
		_, err := builder.Build(doc)
		assert.ErrorContains(t, err, "líneas")
	})
}
