package billing

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ticodev/facturele-api/internal/domain/entity"
)

// HaciendaConfig para los casos de uso de emisión (ambiente, credenciales
// del API de recepción y rutas del certificado de firma).
type HaciendaConfig struct {
	Environment  string // sandbox | production
	APIToken     string
	CertPath     string
	CertKeyPath  string
	CertPassword string
}

// SubmitResult respuesta normalizada del API de recepción de Hacienda.
// Pending indica que Hacienda recibió el comprobante pero aún no emite
// veredicto; el comprobante queda en PENDIENTE hasta el polling o reenvío.
type SubmitResult struct {
	Accepted    bool
	Pending     bool
	ReferenceID string // Identificador de seguimiento devuelto por Hacienda
	Errors      string // Mensajes de rechazo (vacío si fue aceptado)
}

// Submitter envía un comprobante firmado al API de recepción de Hacienda.
// environment decide la URL (sandbox o producción). Un error indica fallo de
// transporte, no rechazo: el rechazo viene dentro de SubmitResult.
type Submitter interface {
	Submit(ctx context.Context, clave string, signedXML []byte, environment string) (*SubmitResult, error)
}

// Mailer envía el comprobante al receptor por correo. El envío es best-effort:
// un fallo de correo nunca cambia el estado del comprobante.
type Mailer interface {
	SendDocument(ctx context.Context, to, subject string, xmlAttachment []byte, attachmentName string) error
}

// RateSource obtiene el tipo de cambio de venta para una moneda en una fecha.
// La implementación consulta el indicador del BCCR.
type RateSource interface {
	SellingRate(ctx context.Context, currency string, date time.Time) (decimal.Decimal, error)
}

// DocumentXMLBuilder serializa el comprobante canónico al XML del formato
// correspondiente (factura v4.4 o tiquete v4.2).
type DocumentXMLBuilder interface {
	Build(doc *entity.Document) ([]byte, error)
}

// CertSource carga el certificado de firma del emisor. Un error marca la
// firma como no disponible; fuera de producción eso activa el modo degradado.
type CertSource interface {
	Load() (tls.Certificate, error)
}

// EnvironmentSource expone el ambiente activo de emisión. Lo implementa
// EnvironmentSwitch; inyectarlo permite cambiar de ambiente sin reiniciar.
type EnvironmentSource interface {
	Current() string
}
