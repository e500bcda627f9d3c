package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del comprobante tras la emisión.
const (
	StatusPending   = "PENDIENTE"  // Firmado o en espera; Hacienda aún no lo acepta (reenvío manual permitido)
	StatusCompleted = "COMPLETADO" // Aceptado por Hacienda (o simulado en sandbox)
	StatusRejected  = "RECHAZADO"  // Rechazado por Hacienda con errores
)

// Etapas del orquestador de emisión. Failed conserva la etapa donde ocurrió la falla.
const (
	StageAssembling = "ensamblando"
	StageSigning    = "firmando"
	StageSubmitting = "enviando"
)

// DocumentKey es el par clave/consecutivo acuñado una sola vez por comprobante.
// Una vez asignado, el comprobante es inmutable respecto a estos campos.
type DocumentKey struct {
	Clave       string // 50 dígitos
	Consecutive string // 20 dígitos (sucursal+terminal+tipo+secuencia)
	Sequence    int64  // Valor entero de la secuencia dentro del ámbito
	MintedAt    time.Time
}

// Exemption registro de exoneración que reduce o anula el impuesto de una línea.
type Exemption struct {
	DocType        string          // Tipo de documento de exoneración
	DocNumber      string          // Número del documento
	Institution    string          // Institución emisora
	IssueDate      time.Time
	Percentage     decimal.Decimal // Porcentaje exonerado (100 = exoneración total)
	ExemptedAmount decimal.Decimal // Monto de impuesto exonerado
}

// LineItem línea de detalle con los montos ya calculados.
// Invariantes: Subtotal = Quantity*UnitPrice - Discount; LineTotal = Subtotal + TaxAmount.
type LineItem struct {
	Number         int
	CABYSCode      string
	Description    string
	Quantity       decimal.Decimal
	UnitMeasure    string
	UnitPrice      decimal.Decimal // Precio en la moneda del comprobante
	BasePrice      decimal.Decimal // Precio en colones; se fija una sola vez y nunca se sobrescribe
	Discount       decimal.Decimal
	DiscountReason string
	TaxCode        string          // Código de impuesto ("01" = IVA)
	TaxRateCode    string          // Código de tarifa ("08" = 13 %, ...)
	TaxRate        decimal.Decimal // Porcentaje
	TaxAmount      decimal.Decimal
	Subtotal       decimal.Decimal
	LineTotal      decimal.Decimal
	Exemption      *Exemption // nil si no aplica

	// Atributos opcionales (farmacia / seriales)
	PharmaForm   string
	SerialNumber string
}

// OtherCharge cargo adicional fuera de las líneas de detalle (ej: timbres, servicio).
type OtherCharge struct {
	ChargeType  string
	Description string
	Amount      decimal.Decimal
}

// DocumentSummary totales agregados del comprobante.
// Invariante: GrandTotal = NetSales + Tax + OtherChargesTotal.
type DocumentSummary struct {
	CurrencyCode      string
	ExchangeRate      decimal.Decimal // 1.00000 para CRC; 5 decimales
	GrossSales        decimal.Decimal
	Discounts         decimal.Decimal
	NetSales          decimal.Decimal
	Tax               decimal.Decimal
	Exonerated        decimal.Decimal
	OtherChargesTotal decimal.Decimal
	GrandTotal        decimal.Decimal
}

// Receiver receptor del comprobante. En tiquetes siempre es el consumidor final genérico.
type Receiver struct {
	Name     string
	IDType   string
	IDNumber string
	Email    string
}

// Document es el comprobante canónico (factura o tiquete) de una emisión.
// Se construye en memoria, recibe la clave una sola vez y se persiste con
// clave/consecutivo inmutables. Los campos de estado y correo pertenecen a la
// proyección histórica (StoredInvoiceRecord) y sí se actualizan.
type Document struct {
	ID           string
	CompanyID    string
	DocType      string // "01" factura, "04" tiquete
	Branch       int    // Sucursal (3 dígitos en el consecutivo)
	Terminal     int    // Terminal/punto de venta (5 dígitos)
	Environment  string // sandbox | production
	Clave        string
	Consecutive  string
	IssuedAt     time.Time
	Issuer       Company
	Receiver     Receiver
	SaleCondition  string
	PaymentMethods []string
	Lines        []LineItem
	OtherCharges []OtherCharge
	Summary      DocumentSummary
	Notes        string

	// Proyección histórica / auditoría
	Status       string // PENDIENTE | COMPLETADO | RECHAZADO
	FailedStage  string // etapa donde falló el último intento (vacío si no aplica)
	XMLSigned    string // XML firmado (o sin firmar en modo degradado)
	ReferenceID  string // identificador devuelto por Hacienda al recibir el comprobante
	ResponseErrors string // mensajes de rechazo de Hacienda

	EmailAttempts  int
	EmailLastError string
	EmailSentAt    *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
