package domain

import "errors"

// Errores genéricos de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")
)

// Errores del núcleo de facturación electrónica. Cada clase de falla tiene un
// sentinel propio para que los handlers puedan mapearla a un mensaje distinto.
var (
	// ErrInvalidLineItem línea con cantidad <= 0, precio negativo o descuento mayor al bruto.
	ErrInvalidLineItem = errors.New("línea de detalle inválida")
	// ErrInvalidExchangeRate tipo de cambio <= 0 para una moneda distinta del colón.
	ErrInvalidExchangeRate = errors.New("tipo de cambio inválido")
	// ErrInvalidKeyComponents un componente de la clave no se puede normalizar a su ancho fijo.
	ErrInvalidKeyComponents = errors.New("componentes de clave inválidos")
	// ErrMissingRequiredField campo anidado obligatorio vacío; se envuelve con la ruta punteada.
	ErrMissingRequiredField = errors.New("campo obligatorio ausente")
	// ErrSigningUnavailable el firmador no está configurado o no responde.
	ErrSigningUnavailable = errors.New("firmador no disponible")
	// ErrSigningError el firmador falló al producir la firma.
	ErrSigningError = errors.New("error de firma")
	// ErrSubmissionTransport falla de red al enviar a Hacienda; el documento queda PENDIENTE.
	ErrSubmissionTransport = errors.New("error de transporte al enviar el comprobante")
	// ErrSubmissionRejected Hacienda rechazó el comprobante; el detalle acompaña al error.
	ErrSubmissionRejected = errors.New("comprobante rechazado por Hacienda")
	// ErrSequenceExhausted el contador de consecutivos llegó al máximo de 10 dígitos.
	// Nunca se degrada en silencio: es fatal para la emisión en ese ámbito.
	ErrSequenceExhausted = errors.New("consecutivo agotado para el ámbito")
)
