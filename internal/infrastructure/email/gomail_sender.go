// Envío de comprobantes por correo (SMTP vía gomail).

package email

import (
	"bytes"
	"context"
	"fmt"
	"io"

	gomail "gopkg.in/gomail.v2"

	"github.com/ticodev/facturele-api/internal/application/billing"
	"github.com/ticodev/facturele-api/pkg/config"
)

// GomailSender implementa billing.Mailer sobre SMTP. El envío es best-effort:
// el orquestador registra el fallo pero nunca cambia el estado del comprobante.
type GomailSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewGomailSender construye el sender con la configuración SMTP.
func NewGomailSender(cfg config.SMTPConfig) *GomailSender {
	return &GomailSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

// SendDocument envía el XML del comprobante como adjunto al receptor.
func (s *GomailSender) SendDocument(ctx context.Context, to, subject string, xmlAttachment []byte, attachmentName string) error {
	if to == "" {
		return fmt.Errorf("email: destinatario vacío")
	}
	if s.dialer.Host == "" {
		return fmt.Errorf("email: SMTP no configurado")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", "Adjunto encontrará su comprobante electrónico.\n\nEste es un mensaje automático, no responda a este correo.")
	m.Attach(attachmentName, gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := io.Copy(w, bytes.NewReader(xmlAttachment))
		return err
	}))

	// gomail no acepta context; respetar la cancelación antes de marcar.
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("email: enviar comprobante: %w", err)
	}
	return nil
}

var _ billing.Mailer = (*GomailSender)(nil)
