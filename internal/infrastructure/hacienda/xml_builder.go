package hacienda

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/ticodev/facturele-api/internal/domain/entity"
	pkghacienda "github.com/ticodev/facturele-api/pkg/hacienda"
)

// Namespaces oficiales de los esquemas de comprobante electrónico de Costa Rica.
const (
	// Factura electrónica v4.4
	NsFactura = "https://cdn.comprobanteselectronicos.go.cr/xml-schemas/v4.4/facturaElectronica"
	// Tiquete electrónico v4.2
	NsTiquete = "https://cdn.comprobanteselectronicos.go.cr/xml-schemas/v4.2/tiqueteElectronico"
	// XML Digital Signature
	NsDs = "http://www.w3.org/2000/09/xmldsig#"
	// XAdES (para la firma)
	NsXades = "http://uri.etsi.org/01903/v1.3.2#"
	// XML Schema Instance
	nsXsi = "http://www.w3.org/2001/XMLSchema-instance"
	nsXsd = "http://www.w3.org/2001/XMLSchema"
)

// XMLBuilderService construye el XML del comprobante (sin firma XAdES).
// La firma se agrega después como último hijo del elemento raíz.
type XMLBuilderService struct{}

// NewXMLBuilderService crea el servicio.
func NewXMLBuilderService() *XMLBuilderService {
	return &XMLBuilderService{}
}

// Build genera el []byte del comprobante según el esquema de su tipo:
// FacturaElectronica (v4.4) o TiqueteElectronico (v4.2).
func (s *XMLBuilderService) Build(doc *entity.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("hacienda: comprobante nulo")
	}
	var rootName, ns string
	switch doc.DocType {
	case pkghacienda.DocTypeFactura:
		rootName, ns = "FacturaElectronica", NsFactura
	case pkghacienda.DocTypeTiquete:
		rootName, ns = "TiqueteElectronico", NsTiquete
	default:
		return nil, fmt.Errorf("hacienda: tipo de documento %q sin esquema XML", doc.DocType)
	}
	if doc.Clave == "" || doc.Consecutive == "" {
		return nil, fmt.Errorf("hacienda: el comprobante no tiene clave acuñada")
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	root := xml.StartElement{
		Name: xml.Name{Local: rootName},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns"}, Value: ns},
			{Name: xml.Name{Local: "xmlns:ds"}, Value: NsDs},
			{Name: xml.Name{Local: "xmlns:xades"}, Value: NsXades},
			{Name: xml.Name{Local: "xmlns:xsd"}, Value: nsXsd},
			{Name: xml.Name{Local: "xmlns:xsi"}, Value: nsXsi},
		},
	}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}

	// ---- Encabezado: clave, actividad, consecutivo, fecha
	writeEl(enc, "Clave", doc.Clave)
	writeEl(enc, "CodigoActividad", doc.Issuer.EconomicActivity)
	writeEl(enc, "NumeroConsecutivo", doc.Consecutive)
	writeEl(enc, "FechaEmision", doc.IssuedAt.Format("2006-01-02T15:04:05-07:00"))

	// ---- Emisor
	s.writeIssuer(enc, &doc.Issuer)

	// ---- Receptor (el tiquete lleva al consumidor final genérico)
	s.writeReceiver(enc, &doc.Receiver)

	// ---- Condición de venta y medios de pago
	writeEl(enc, "CondicionVenta", doc.SaleCondition)
	for _, m := range doc.PaymentMethods {
		writeEl(enc, "MedioPago", m)
	}

	// ---- DetalleServicio
	if err := s.writeLines(enc, doc); err != nil {
		return nil, err
	}

	// ---- OtrosCargos
	s.writeOtherCharges(enc, doc.OtherCharges)

	// ---- ResumenFactura
	s.writeSummary(enc, &doc.Summary)

	if doc.Notes != "" {
		start(enc, "Otros")
		writeEl(enc, "OtroTexto", doc.Notes)
		end(enc, "Otros")
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *XMLBuilderService) writeIssuer(enc *xml.Encoder, c *entity.Company) {
	start(enc, "Emisor")
	writeEl(enc, "Nombre", c.Name)
	start(enc, "Identificacion")
	writeEl(enc, "Tipo", c.IDType)
	writeEl(enc, "Numero", c.IDNumber)
	end(enc, "Identificacion")
	if c.TradeName != "" {
		writeEl(enc, "NombreComercial", c.TradeName)
	}
	start(enc, "Ubicacion")
	writeEl(enc, "Provincia", c.Province)
	writeEl(enc, "Canton", c.Canton)
	writeEl(enc, "Distrito", c.District)
	if c.AddressDetails != "" {
		writeEl(enc, "OtrasSenas", c.AddressDetails)
	}
	end(enc, "Ubicacion")
	if c.Phone != "" {
		start(enc, "Telefono")
		writeEl(enc, "CodigoPais", "506")
		writeEl(enc, "NumTelefono", c.Phone)
		end(enc, "Telefono")
	}
	writeEl(enc, "CorreoElectronico", c.Email)
	end(enc, "Emisor")
}

func (s *XMLBuilderService) writeReceiver(enc *xml.Encoder, r *entity.Receiver) {
	if r.Name == "" {
		return
	}
	start(enc, "Receptor")
	writeEl(enc, "Nombre", r.Name)
	if r.IDNumber != "" {
		start(enc, "Identificacion")
		writeEl(enc, "Tipo", r.IDType)
		writeEl(enc, "Numero", r.IDNumber)
		end(enc, "Identificacion")
	}
	if r.Email != "" {
		writeEl(enc, "CorreoElectronico", r.Email)
	}
	end(enc, "Receptor")
}

func (s *XMLBuilderService) writeLines(enc *xml.Encoder, doc *entity.Document) error {
	if len(doc.Lines) == 0 {
		return fmt.Errorf("hacienda: comprobante sin líneas de detalle")
	}
	start(enc, "DetalleServicio")
	for _, l := range doc.Lines {
		start(enc, "LineaDetalle")
		writeEl(enc, "NumeroLinea", strconv.Itoa(l.Number))
		writeEl(enc, "Codigo", l.CABYSCode)
		writeEl(enc, "Cantidad", formatQty(l.Quantity))
		writeEl(enc, "UnidadMedida", l.UnitMeasure)
		writeEl(enc, "Detalle", l.Description)
		writeEl(enc, "PrecioUnitario", formatAmount(l.UnitPrice))
		writeEl(enc, "MontoTotal", formatAmount(l.Quantity.Mul(l.UnitPrice)))
		if l.Discount.IsPositive() {
			start(enc, "Descuento")
			writeEl(enc, "MontoDescuento", formatAmount(l.Discount))
			if l.DiscountReason != "" {
				writeEl(enc, "NaturalezaDescuento", l.DiscountReason)
			}
			end(enc, "Descuento")
		}
		writeEl(enc, "SubTotal", formatAmount(l.Subtotal))
		start(enc, "Impuesto")
		writeEl(enc, "Codigo", l.TaxCode)
		writeEl(enc, "CodigoTarifa", l.TaxRateCode)
		writeEl(enc, "Tarifa", formatAmount(l.TaxRate))
		writeEl(enc, "Monto", formatAmount(l.TaxAmount))
		if ex := l.Exemption; ex != nil {
			start(enc, "Exoneracion")
			writeEl(enc, "TipoDocumento", ex.DocType)
			writeEl(enc, "NumeroDocumento", ex.DocNumber)
			if ex.Institution != "" {
				writeEl(enc, "NombreInstitucion", ex.Institution)
			}
			if !ex.IssueDate.IsZero() {
				writeEl(enc, "FechaEmision", ex.IssueDate.Format("2006-01-02T15:04:05-07:00"))
			}
			writeEl(enc, "PorcentajeExoneracion", ex.Percentage.Round(0).String())
			writeEl(enc, "MontoExoneracion", formatAmount(ex.ExemptedAmount))
			end(enc, "Exoneracion")
		}
		end(enc, "Impuesto")
		writeEl(enc, "MontoTotalLinea", formatAmount(l.LineTotal))
		end(enc, "LineaDetalle")
	}
	end(enc, "DetalleServicio")
	return nil
}

func (s *XMLBuilderService) writeOtherCharges(enc *xml.Encoder, charges []entity.OtherCharge) {
	if len(charges) == 0 {
		return
	}
	start(enc, "OtrosCargos")
	for _, c := range charges {
		writeEl(enc, "TipoDocumento", c.ChargeType)
		writeEl(enc, "Detalle", c.Description)
		writeEl(enc, "MontoCargo", formatAmount(c.Amount))
	}
	end(enc, "OtrosCargos")
}

func (s *XMLBuilderService) writeSummary(enc *xml.Encoder, sum *entity.DocumentSummary) {
	start(enc, "ResumenFactura")
	start(enc, "CodigoTipoMoneda")
	writeEl(enc, "CodigoMoneda", sum.CurrencyCode)
	writeEl(enc, "TipoCambio", sum.ExchangeRate.StringFixed(5))
	end(enc, "CodigoTipoMoneda")
	writeEl(enc, "TotalVenta", formatAmount(sum.GrossSales))
	writeEl(enc, "TotalDescuentos", formatAmount(sum.Discounts))
	writeEl(enc, "TotalVentaNeta", formatAmount(sum.NetSales))
	writeEl(enc, "TotalImpuesto", formatAmount(sum.Tax))
	if sum.Exonerated.IsPositive() {
		writeEl(enc, "TotalExonerado", formatAmount(sum.Exonerated))
	}
	if sum.OtherChargesTotal.IsPositive() {
		writeEl(enc, "TotalOtrosCargos", formatAmount(sum.OtherChargesTotal))
	}
	writeEl(enc, "TotalComprobante", formatAmount(sum.GrandTotal))
	end(enc, "ResumenFactura")
}

// ── helpers ───────────────────────────────────────────────────────────────────

func start(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: local}})
}

func end(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: local}})
}

func writeEl(enc *xml.Encoder, local, value string) {
	start(enc, local)
	_ = enc.EncodeToken(xml.CharData(value))
	end(enc, local)
}

// formatAmount montos con 5 decimales, como exige el esquema.
func formatAmount(d decimal.Decimal) string {
	return d.Round(5).StringFixed(5)
}

func formatQty(d decimal.Decimal) string {
	return d.Round(3).StringFixed(3)
}
