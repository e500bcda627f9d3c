package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/ticodev/facturele-api/internal/domain"
	"github.com/ticodev/facturele-api/internal/domain/entity"
	"github.com/ticodev/facturele-api/internal/domain/repository"
	pkghacienda "github.com/ticodev/facturele-api/pkg/hacienda"
	"github.com/ticodev/facturele-api/pkg/logger"
)

// SubmissionOrchestrator orquesta el ciclo de emisión de un comprobante ya
// ensamblado:
//
//	XML (v4.4 / v4.2) → Firma XAdES → Envío al API de recepción → Registro
//
// Reglas de degradación:
//   - Fuera de producción, si la firma no está disponible (sin certificado o
//     error del firmador), el comprobante sigue SIN FIRMAR con una
//     advertencia. En producción el mismo fallo detiene la emisión.
//   - En sandbox sin cliente de envío inyectado, la aceptación se simula.
//   - Un fallo de transporte deja el comprobante en PENDIENTE con la etapa
//     registrada; el reenvío es manual (Resubmit), nunca automático.
//   - El correo al receptor es best-effort y jamás cambia el estado.
type SubmissionOrchestrator struct {
	docRepo    repository.DocumentRepository
	xmlBuilder DocumentXMLBuilder
	signer     pkghacienda.Signer
	certs      CertSource // nil = firma no disponible
	submitter  Submitter  // nil = solo simulación sandbox
	mailer     Mailer     // nil = sin correo
	cfg        HaciendaConfig
	envSrc     EnvironmentSource // nil = se usa cfg.Environment fijo
	log        *logger.Logger
}

// NewSubmissionOrchestrator construye el orquestador con todas sus dependencias.
func NewSubmissionOrchestrator(
	docRepo repository.DocumentRepository,
	xmlBuilder DocumentXMLBuilder,
	signer pkghacienda.Signer,
	certs CertSource,
	submitter Submitter,
	mailer Mailer,
	cfg HaciendaConfig,
	log *logger.Logger,
) *SubmissionOrchestrator {
	return &SubmissionOrchestrator{
		docRepo:    docRepo,
		xmlBuilder: xmlBuilder,
		signer:     signer,
		certs:      certs,
		submitter:  submitter,
		mailer:     mailer,
		cfg:        cfg,
		log:        log.WithComponent("orquestador"),
	}
}

// SetEnvironmentSource conecta el conmutador de ambiente. Sin conectar, el
// orquestador usa el ambiente fijo de la configuración.
func (o *SubmissionOrchestrator) SetEnvironmentSource(src EnvironmentSource) {
	o.envSrc = src
}

func (o *SubmissionOrchestrator) environment() string {
	if o.envSrc != nil {
		return o.envSrc.Current()
	}
	return o.cfg.Environment
}

// ProcessAsync dispara el procesamiento en una goroutine independiente con su
// propio contexto, desacoplado del ciclo HTTP. documentID debe estar ya
// persistido en PENDIENTE.
func (o *SubmissionOrchestrator) ProcessAsync(documentID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		doc, err := o.docRepo.GetByID(ctx, documentID)
		if err != nil || doc == nil {
			o.log.Error().Str("document_id", documentID).Err(err).Msg("comprobante no encontrado")
			return
		}
		if err := o.Process(ctx, doc); err != nil {
			o.log.Error().Str("document_id", documentID).Str("clave", doc.Clave).Err(err).
				Msg("emisión fallida")
		}
	}()
}

// Process ejecuta el ciclo completo de forma síncrona. Siempre termina
// persistiendo el estado resultante del comprobante.
func (o *SubmissionOrchestrator) Process(ctx context.Context, doc *entity.Document) error {
	xmlBytes, err := o.xmlBuilder.Build(doc)
	if err != nil {
		o.markFailed(ctx, doc, entity.StageAssembling, err)
		return fmt.Errorf("construir XML: %w", err)
	}

	signedXML, signErr := o.sign(xmlBytes)
	switch {
	case signErr == nil:
		// firmado
	case o.environment() == pkghacienda.EnvironmentProduction:
		o.markFailed(ctx, doc, entity.StageSigning, signErr)
		return signErr
	default:
		// Modo degradado: el comprobante viaja sin firmar fuera de producción.
		o.log.Warn().Str("clave", doc.Clave).Err(signErr).
			Msg("firma no disponible, se continúa sin firmar")
		signedXML = xmlBytes
	}
	doc.XMLSigned = string(signedXML)

	result, err := o.submit(ctx, doc, signedXML)
	if err != nil {
		doc.Status = entity.StatusPending
		doc.FailedStage = entity.StageSubmitting
		doc.UpdatedAt = time.Now()
		if uerr := o.docRepo.Update(ctx, doc); uerr != nil {
			o.log.Error().Str("clave", doc.Clave).Err(uerr).Msg("no se pudo persistir PENDIENTE")
		}
		return fmt.Errorf("%w: %v", domain.ErrSubmissionTransport, err)
	}

	o.record(doc, result)
	doc.UpdatedAt = time.Now()
	if err := o.docRepo.Update(ctx, doc); err != nil {
		return fmt.Errorf("persistir resultado: %w", err)
	}

	o.log.Info().Str("clave", doc.Clave).Str("status", doc.Status).
		Str("reference_id", doc.ReferenceID).Msg("comprobante procesado")

	if doc.Status == entity.StatusCompleted {
		o.emailReceiver(ctx, doc, signedXML)
	}
	if doc.Status == entity.StatusRejected {
		return fmt.Errorf("%w: %s", domain.ErrSubmissionRejected, doc.ResponseErrors)
	}
	return nil
}

// Resubmit reintenta la emisión de un comprobante PENDIENTE. Con XML ya
// firmado solo repite el envío, sin reconstruir ni volver a firmar. Si la
// emisión falló antes de producir XML firmado (certificado ausente en
// producción, por ejemplo), repite el ciclo completo sobre la misma clave:
// clave y contenido son inmutables, así que el XML resultante es el mismo.
func (o *SubmissionOrchestrator) Resubmit(ctx context.Context, documentID string) error {
	doc, err := o.docRepo.GetByID(ctx, documentID)
	if err != nil || doc == nil {
		return domain.ErrNotFound
	}
	if doc.Status != entity.StatusPending {
		return fmt.Errorf("%w: el comprobante está %s, solo PENDIENTE admite reenvío", domain.ErrConflict, doc.Status)
	}
	if doc.XMLSigned == "" {
		return o.Process(ctx, doc)
	}

	result, err := o.submit(ctx, doc, []byte(doc.XMLSigned))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSubmissionTransport, err)
	}
	o.record(doc, result)
	doc.UpdatedAt = time.Now()
	return o.docRepo.Update(ctx, doc)
}

// sign firma el XML con el certificado del emisor. Cualquier fallo se reporta
// como firma no disponible o error de firma; el caller decide si degradar.
func (o *SubmissionOrchestrator) sign(xmlBytes []byte) ([]byte, error) {
	if o.signer == nil || o.certs == nil {
		return nil, domain.ErrSigningUnavailable
	}
	cert, err := o.certs.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSigningUnavailable, err)
	}
	if len(cert.Certificate) == 0 || cert.PrivateKey == nil {
		return nil, fmt.Errorf("%w: certificado vacío", domain.ErrSigningUnavailable)
	}
	signed, err := o.signer.Sign(xmlBytes, cert)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSigningError, err)
	}
	return signed, nil
}

// submit envía a Hacienda, o simula la aceptación en sandbox sin cliente.
func (o *SubmissionOrchestrator) submit(ctx context.Context, doc *entity.Document, signedXML []byte) (*SubmitResult, error) {
	if o.submitter == nil {
		if o.environment() == pkghacienda.EnvironmentProduction {
			return nil, fmt.Errorf("cliente de envío no inyectado en producción")
		}
		o.log.Info().Str("clave", doc.Clave).Msg("[sandbox] envío simulado, aceptación inmediata")
		return &SubmitResult{Accepted: true, ReferenceID: "SIM-" + doc.Consecutive}, nil
	}
	return o.submitter.Submit(ctx, doc.Clave, signedXML, o.environment())
}

// record traslada el veredicto de Hacienda al comprobante.
func (o *SubmissionOrchestrator) record(doc *entity.Document, result *SubmitResult) {
	doc.ReferenceID = result.ReferenceID
	doc.ResponseErrors = result.Errors
	doc.FailedStage = ""
	switch {
	case result.Pending:
		// Recibido sin veredicto: sigue PENDIENTE hasta el polling o reenvío.
		doc.Status = entity.StatusPending
	case result.Accepted:
		doc.Status = entity.StatusCompleted
	default:
		doc.Status = entity.StatusRejected
	}
}

// markFailed persiste la etapa donde falló la emisión. El comprobante queda
// en PENDIENTE para permitir un reintento manual.
func (o *SubmissionOrchestrator) markFailed(ctx context.Context, doc *entity.Document, stage string, cause error) {
	doc.Status = entity.StatusPending
	doc.FailedStage = stage
	doc.UpdatedAt = time.Now()
	if err := o.docRepo.Update(ctx, doc); err != nil {
		o.log.Error().Str("clave", doc.Clave).Str("stage", stage).Err(err).
			Msg("no se pudo persistir la etapa fallida")
	}
	o.log.Error().Str("clave", doc.Clave).Str("stage", stage).Err(cause).Msg("etapa fallida")
}

// emailReceiver envía el XML al receptor. Best-effort: los fallos solo se
// anotan en el registro del comprobante.
func (o *SubmissionOrchestrator) emailReceiver(ctx context.Context, doc *entity.Document, signedXML []byte) {
	if o.mailer == nil || doc.Receiver.Email == "" {
		return
	}
	doc.EmailAttempts++
	subject := fmt.Sprintf("Comprobante electrónico %s", doc.Consecutive)
	err := o.mailer.SendDocument(ctx, doc.Receiver.Email, subject, signedXML, doc.Clave+".xml")
	if err != nil {
		doc.EmailLastError = err.Error()
		o.log.Warn().Str("clave", doc.Clave).Err(err).Msg("no se pudo enviar el correo al receptor")
	} else {
		now := time.Now()
		doc.EmailSentAt = &now
		doc.EmailLastError = ""
	}
	doc.UpdatedAt = time.Now()
	if uerr := o.docRepo.Update(ctx, doc); uerr != nil {
		o.log.Warn().Str("clave", doc.Clave).Err(uerr).Msg("no se pudo persistir el estado del correo")
	}
}
