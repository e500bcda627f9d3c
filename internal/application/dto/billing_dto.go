package dto

import "github.com/shopspring/decimal"

// CreateDocumentRequest body para POST /api/documents.
// DocType "01" (factura) o "04" (tiquete). En tiquetes el receptor se
// ignora: el comprobante se emite siempre al consumidor final genérico.
type CreateDocumentRequest struct {
	DocType       string               `json:"doc_type"`
	Branch        int                  `json:"branch"`
	Terminal      int                  `json:"terminal"`
	ClientID      string               `json:"client_id,omitempty"`
	CurrencyCode  string               `json:"currency_code,omitempty"` // CRC si va vacío
	ExchangeRate  decimal.Decimal      `json:"exchange_rate,omitempty"`
	SaleCondition string               `json:"sale_condition,omitempty"`
	PaymentMethod string               `json:"payment_method,omitempty"`
	Items         []DocumentItemRequest `json:"items"`
	OtherCharges  []OtherChargeRequest  `json:"other_charges,omitempty"`
	Notes         string               `json:"notes,omitempty"`
}

// DocumentItemRequest línea del comprobante. ProductID es opcional: si va,
// código CABYS, unidad y tarifa se toman del catálogo de productos.
type DocumentItemRequest struct {
	ProductID      string          `json:"product_id,omitempty"`
	CABYSCode      string          `json:"cabys_code,omitempty"`
	Description    string          `json:"description,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitMeasure    string          `json:"unit_measure,omitempty"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Discount       decimal.Decimal `json:"discount,omitempty"`
	DiscountReason string          `json:"discount_reason,omitempty"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	Exemption      *ExemptionRequest `json:"exemption,omitempty"`
}

// ExemptionRequest exoneración aplicada a una línea (solo facturas).
type ExemptionRequest struct {
	DocType     string          `json:"doc_type"`
	DocNumber   string          `json:"doc_number"`
	Institution string          `json:"institution,omitempty"`
	IssueDate   string          `json:"issue_date,omitempty"` // YYYY-MM-DD
	Percentage  decimal.Decimal `json:"percentage"`
}

// OtherChargeRequest cargo adicional que no es línea de detalle.
type OtherChargeRequest struct {
	ChargeType  string          `json:"charge_type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// DocumentResponse comprobante con detalle para GET /api/documents/:id.
type DocumentResponse struct {
	ID            string                 `json:"id"`
	CompanyID     string                 `json:"company_id"`
	DocType       string                 `json:"doc_type"`
	Clave         string                 `json:"clave"`
	Consecutive   string                 `json:"consecutive"`
	Environment   string                 `json:"environment"`
	IssuedAt      string                 `json:"issued_at"`
	ReceiverName  string                 `json:"receiver_name,omitempty"`
	CurrencyCode  string                 `json:"currency_code"`
	ExchangeRate  decimal.Decimal        `json:"exchange_rate"`
	NetSales      decimal.Decimal        `json:"net_sales"`
	Tax           decimal.Decimal        `json:"tax"`
	GrandTotal    decimal.Decimal        `json:"grand_total"`
	Status        string                 `json:"status"`
	FailedStage   string                 `json:"failed_stage,omitempty"`
	Lines         []DocumentLineResponse `json:"lines"`
}

// DocumentLineResponse línea de detalle en la respuesta.
type DocumentLineResponse struct {
	Number      int             `json:"number"`
	CABYSCode   string          `json:"cabys_code"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount,omitempty"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// DocumentStatusDTO respuesta ligera para el endpoint de polling
// GET /api/documents/:id/status.
// El frontend consulta este endpoint hasta que status sea "COMPLETADO" o
// "RECHAZADO"; "PENDIENTE" significa que aún no hay veredicto de Hacienda.
type DocumentStatusDTO struct {
	ID          string `json:"id"`
	Status      string `json:"status"` // PENDIENTE|COMPLETADO|RECHAZADO
	Clave       string `json:"clave"`
	FailedStage string `json:"failed_stage,omitempty"`
	Errors      string `json:"errors,omitempty"` // Mensajes de rechazo de Hacienda
}

// SequenceStatusDTO último consecutivo emitido en un alcance de numeración.
// GET /api/documents/sequence.
type SequenceStatusDTO struct {
	DocType      string `json:"doc_type"`
	Branch       int    `json:"branch"`
	Terminal     int    `json:"terminal"`
	Environment  string `json:"environment"`
	LastSequence int64  `json:"last_sequence"` // 0 = el alcance aún no emite
}
