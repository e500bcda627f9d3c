package hacienda

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ticodev/facturele-api/internal/application/billing"
	domhacienda "github.com/ticodev/facturele-api/internal/domain/hacienda"
	pkghacienda "github.com/ticodev/facturele-api/pkg/hacienda"
)

// URLs del API de recepción de comprobantes (REST, v1).
const (
	recepcionURLSandbox = "https://api-sandbox.comprobanteselectronicos.go.cr/recepcion/v1/recepcion"
	recepcionURLProd    = "https://api.comprobanteselectronicos.go.cr/recepcion/v1/recepcion"
)

// APIClient implementa billing.Submitter contra el API REST de recepción de
// Hacienda. Usa net/http; el comprobante viaja en Base64 dentro de un JSON.
type APIClient struct {
	httpClient *http.Client
	token      string
}

// NewAPIClient construye el cliente con un timeout de red generoso (60 s):
// el API de recepción puede tardar varios segundos en responder.
func NewAPIClient(token string) *APIClient {
	return &APIClient{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		token:      token,
	}
}

// ── Estructuras del API ───────────────────────────────────────────────────────

type recepcionRequest struct {
	Clave          string          `json:"clave"`
	Fecha          string          `json:"fecha"`
	Emisor         recepcionParty  `json:"emisor"`
	Receptor       *recepcionParty `json:"receptor,omitempty"`
	ComprobanteXML string          `json:"comprobanteXml"` // XML en Base64
}

type recepcionParty struct {
	TipoIdentificacion   string `json:"tipoIdentificacion"`
	NumeroIdentificacion string `json:"numeroIdentificacion"`
}

type recepcionStatus struct {
	Clave        string `json:"clave"`
	IndEstado    string `json:"ind-estado"` // recibido|procesando|aceptado|rechazado|error
	RespuestaXML string `json:"respuesta-xml,omitempty"`
}

// ── Submit ────────────────────────────────────────────────────────────────────

// Submit entrega el comprobante y consulta el estado una vez. Si Hacienda aún
// no emite veredicto, el resultado queda Pending; el caller decide cuándo
// volver a consultar.
func (c *APIClient) Submit(ctx context.Context, clave string, signedXML []byte, environment string) (*billing.SubmitResult, error) {
	baseURL := recepcionURLSandbox
	if environment == pkghacienda.EnvironmentProduction {
		baseURL = recepcionURLProd
	}

	payload, err := c.buildPayload(clave, signedXML)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("recepcion: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("recepcion: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("recepcion: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()
	rawBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // max 1 MB

	switch {
	case resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusCreated:
		// Recibido; consultar el estado una vez antes de reportar.
		return c.checkStatus(ctx, baseURL, clave)
	case resp.StatusCode == http.StatusBadRequest:
		// Rechazo de validación inmediato, no es fallo de transporte.
		return &billing.SubmitResult{
			Accepted:    false,
			ReferenceID: clave,
			Errors:      strings.TrimSpace(string(rawBody)),
		}, nil
	default:
		return nil, fmt.Errorf("recepcion: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(rawBody)))
	}
}

// CheckStatus consulta el veredicto actual de un comprobante ya entregado.
func (c *APIClient) CheckStatus(ctx context.Context, clave, environment string) (*billing.SubmitResult, error) {
	baseURL := recepcionURLSandbox
	if environment == pkghacienda.EnvironmentProduction {
		baseURL = recepcionURLProd
	}
	return c.checkStatus(ctx, baseURL, clave)
}

// ── helpers ───────────────────────────────────────────────────────────────────

// buildPayload arma el JSON de recepción. Los datos del emisor salen de la
// propia clave (posiciones 10-21); una cédula de 10 dígitos es jurídica.
func (c *APIClient) buildPayload(clave string, signedXML []byte) ([]byte, error) {
	comps, err := domhacienda.ParseClave(clave)
	if err != nil {
		return nil, fmt.Errorf("recepcion: %w", err)
	}
	issuerID := strings.TrimLeft(comps.IssuerID, "0")
	idType := pkghacienda.IDTypeFisica
	if len(issuerID) == 10 {
		idType = pkghacienda.IDTypeJuridica
	}
	body := recepcionRequest{
		Clave: clave,
		Fecha: time.Now().Format("2006-01-02T15:04:05-07:00"),
		Emisor: recepcionParty{
			TipoIdentificacion:   idType,
			NumeroIdentificacion: issuerID,
		},
		ComprobanteXML: base64.StdEncoding.EncodeToString(signedXML),
	}
	return json.Marshal(body)
}

func (c *APIClient) checkStatus(ctx context.Context, baseURL, clave string) (*billing.SubmitResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/"+clave, nil)
	if err != nil {
		return nil, fmt.Errorf("recepcion: crear request de estado: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recepcion: consulta de estado fallida: %w", err)
	}
	defer resp.Body.Close()
	rawBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recepcion: estado HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(rawBody)))
	}

	var status recepcionStatus
	if err := json.Unmarshal(rawBody, &status); err != nil {
		return nil, fmt.Errorf("recepcion: respuesta de estado ilegible: %w", err)
	}

	switch strings.ToLower(status.IndEstado) {
	case "aceptado":
		return &billing.SubmitResult{Accepted: true, ReferenceID: clave}, nil
	case "rechazado", "error":
		return &billing.SubmitResult{
			Accepted:    false,
			ReferenceID: clave,
			Errors:      decodeRespuesta(status.RespuestaXML),
		}, nil
	default:
		// recibido | procesando: sin veredicto todavía.
		return &billing.SubmitResult{Pending: true, ReferenceID: clave}, nil
	}
}

// decodeRespuesta decodifica el mensaje de Hacienda (viene en Base64). Si no
// decodifica, se devuelve tal cual.
func decodeRespuesta(respuestaXML string) string {
	if respuestaXML == "" {
		return ""
	}
	decoded, err := base64.StdEncoding.DecodeString(respuestaXML)
	if err != nil {
		return respuestaXML
	}
	return string(decoded)
}
