// Package hacienda contiene catálogos y constantes del comprobante electrónico
// de Costa Rica (Ministerio de Hacienda, resolución de comprobantes electrónicos).
package hacienda

// =============================================================================
// Tipos de documento electrónico (dígitos 29-30 del consecutivo).
// =============================================================================

const (
	DocTypeFactura      = "01" // Factura electrónica (v4.4)
	DocTypeNotaDebito   = "02" // Nota de débito electrónica
	DocTypeNotaCredito  = "03" // Nota de crédito electrónica
	DocTypeTiquete      = "04" // Tiquete electrónico (v4.2)
)

// ValidDocumentTypes tipos de documento soportados por el sistema.
var ValidDocumentTypes = map[string]bool{
	DocTypeFactura: true,
	DocTypeTiquete: true,
}

// =============================================================================
// Situación del comprobante (posición 43 de la clave).
// =============================================================================

const (
	SituationNormal       = "1" // Emisión normal con conexión al sistema
	SituationContingencia = "2" // Contingencia (falla del sistema emisor)
	SituationSinInternet  = "3" // Sin conexión a internet al momento de emitir
)

// =============================================================================
// Ambientes de emisión. El contador de consecutivos es independiente por ambiente.
// =============================================================================

const (
	EnvironmentSandbox    = "sandbox"
	EnvironmentProduction = "production"
)

// =============================================================================
// Impuesto sobre el Valor Agregado: códigos de tarifa.
// La tabla corta cubre las tarifas reducidas vigentes; toda tarifa fuera de la
// tabla se reporta con el código de la tarifa general del 13 %.
// =============================================================================

const (
	TaxCodeIVA = "01" // Impuesto al Valor Agregado

	TarifaReducida1  = "01" // 1 %  (canasta básica)
	TarifaReducida2  = "02" // 2 %  (medicamentos, educación privada)
	TarifaReducida4  = "03" // 4 %  (salud privada, boletos aéreos)
	TarifaReducida8  = "04" // 8 %
	TarifaGeneral13  = "08" // 13 % tarifa general
)

// =============================================================================
// Tipos de identificación del emisor/receptor.
// =============================================================================

const (
	IDTypeFisica     = "01" // Cédula física
	IDTypeJuridica   = "02" // Cédula jurídica
	IDTypeDIMEX      = "03" // DIMEX (residentes extranjeros)
	IDTypeNITE       = "04" // NITE
)

// ValidIDTypes tipos de identificación aceptados.
var ValidIDTypes = map[string]bool{
	IDTypeFisica: true, IDTypeJuridica: true, IDTypeDIMEX: true, IDTypeNITE: true,
}

// Receptor genérico para tiquetes: el tiquete no exige receptor identificado.
const (
	GenericConsumerName = "CONSUMIDOR FINAL"
	GenericConsumerID   = "000000000"
)

// =============================================================================
// Condición de venta.
// =============================================================================

const (
	SaleConditionContado = "01" // Contado
	SaleConditionCredito = "02" // Crédito
)

// =============================================================================
// Medios de pago.
// =============================================================================

const (
	PaymentMethodEfectivo      = "01" // Efectivo
	PaymentMethodTarjeta       = "02" // Tarjeta
	PaymentMethodCheque        = "03" // Cheque
	PaymentMethodTransferencia = "04" // Transferencia o depósito bancario
	PaymentMethodOtros         = "99" // Otros
)

// =============================================================================
// Unidades de medida de uso frecuente en líneas de detalle.
// =============================================================================

const (
	UnitUnidad    = "Unid"
	UnitServicio  = "Sp"   // Servicios profesionales
	UnitKilogramo = "kg"
	UnitGramo     = "g"
	UnitLitro     = "L"
	UnitMetro     = "m"
	UnitHora      = "h"
	UnitDia       = "d"
)

// ValidMeasurementUnits unidades de medida aceptadas sin advertencia.
var ValidMeasurementUnits = map[string]bool{
	UnitUnidad: true, UnitServicio: true, UnitKilogramo: true, UnitGramo: true,
	UnitLitro: true, UnitMetro: true, UnitHora: true, UnitDia: true,
}

// =============================================================================
// Monedas. El colón es la moneda base; TipoCambio se reporta con 5 decimales.
// =============================================================================

const (
	CurrencyCRC = "CRC" // Colón costarricense (moneda base)
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
)

// CABYSCodeLength longitud del código CABYS de clasificación de bienes y servicios.
const CABYSCodeLength = 13
