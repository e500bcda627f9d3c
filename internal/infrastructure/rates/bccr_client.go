// Cliente del web service de Indicadores Económicos del Banco Central de
// Costa Rica (BCCR). Provee el tipo de cambio de venta usado para convertir
// comprobantes en moneda extranjera a colones.

package rates

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ticodev/facturele-api/internal/application/billing"
	"github.com/ticodev/facturele-api/pkg/config"
)

const bccrEndpoint = "https://gee.bccr.fi.cr/Indicadores/Suscripciones/WS/wsindicadoreseconomicosxml.asmx/ObtenerIndicadoresEconomicosXML"

// Indicadores del BCCR: 318 = tipo de cambio de venta USD/CRC.
const indicatorUSDSell = "318"

// BCCRClient implementa billing.RateSource contra el WS del BCCR.
// Requiere el correo y token de la suscripción gratuita del banco.
type BCCRClient struct {
	httpClient *http.Client
	email      string
	token      string
}

// NewBCCRClient construye el cliente de tipos de cambio.
func NewBCCRClient(cfg config.RatesConfig) *BCCRClient {
	return &BCCRClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		email:      cfg.Email,
		token:      cfg.Token,
	}
}

// ── Estructura de la respuesta ────────────────────────────────────────────────

// El WS devuelve un string XML-escapado con el dataset; el valor viene en NUM_VALOR.
type datosIndicador struct {
	XMLName xml.Name `xml:"Datos_de_INGC011_CAT_INDICADORECONOMIC"`
	Valores []struct {
		Valor decimal.Decimal `xml:"NUM_VALOR"`
		Fecha string          `xml:"DES_FECHA"`
	} `xml:"INGC011_CAT_INDICADORECONOMIC"`
}

// SellingRate devuelve el tipo de cambio de venta de la moneda a colones para
// la fecha indicada. Solo USD está soportado: es la única moneda extranjera
// con indicador de venta directo contra el colón.
func (c *BCCRClient) SellingRate(ctx context.Context, currency string, date time.Time) (decimal.Decimal, error) {
	if currency != "USD" {
		return decimal.Zero, fmt.Errorf("bccr: moneda %q sin indicador de venta", currency)
	}
	if c.email == "" || c.token == "" {
		return decimal.Zero, fmt.Errorf("bccr: suscripción no configurada (BCCR_EMAIL / BCCR_TOKEN)")
	}

	day := date.Format("02/01/2006")
	params := url.Values{}
	params.Set("Indicador", indicatorUSDSell)
	params.Set("FechaInicio", day)
	params.Set("FechaFinal", day)
	params.Set("Nombre", "N")
	params.Set("SubNiveles", "N")
	params.Set("CorreoElectronico", c.email)
	params.Set("Token", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, bccrEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("bccr: crear request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("bccr: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("bccr: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	rate, err := parseRate(body)
	if err != nil {
		return decimal.Zero, err
	}
	return rate, nil
}

// parseRate extrae NUM_VALOR del sobre del WS. El dataset viene como string
// XML-escapado dentro del elemento <string>; se desescapa antes de parsear.
func parseRate(body []byte) (decimal.Decimal, error) {
	var envelope struct {
		Inner string `xml:",chardata"`
	}
	payload := body
	if err := xml.Unmarshal(body, &envelope); err == nil && strings.Contains(envelope.Inner, "NUM_VALOR") {
		payload = []byte(envelope.Inner)
	}

	var datos datosIndicador
	if err := xml.Unmarshal(payload, &datos); err != nil {
		return decimal.Zero, fmt.Errorf("bccr: respuesta ilegible: %w", err)
	}
	if len(datos.Valores) == 0 {
		return decimal.Zero, fmt.Errorf("bccr: sin valor para la fecha consultada")
	}
	// El último valor del rango es el vigente.
	rate := datos.Valores[len(datos.Valores)-1].Valor
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("bccr: tipo de cambio no positivo: %s", rate)
	}
	return rate, nil
}

var _ billing.RateSource = (*BCCRClient)(nil)
