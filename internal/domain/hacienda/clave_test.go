package hacienda_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticodev/facturele-api/internal/domain"
	"github.com/ticodev/facturele-api/internal/domain/hacienda"
)

// ──────────────────────────────────────────────────────────────────────────────
// La clave de 50 dígitos es el identificador legal del comprobante: estos tests
// son el canario de la integración con Hacienda. Si alguien altera el orden de
// concatenación o los anchos fijos, fallan de inmediato.
//
// Vector de referencia armado a mano:
//
//	clave = "506" + "150326" (15-03-2026) + "003101123456" (cédula 3101123456
//	        con ceros a la izquierda, 12 dígitos) + consecutivo
//	        "00100001010000000042" + situación "1" + seguridad "12345678"
// ──────────────────────────────────────────────────────────────────────────────

const (
	testIssuerID     = "3101123456"
	testSecurityCode = "12345678"
	testClaveExpected = "506" + "150326" + "003101123456" + "00100001010000000042" + "1" + "12345678"
)

var testIssuedAt = time.Date(2026, time.March, 15, 10, 30, 0, 0, time.UTC)

func buildTestParams(t *testing.T) hacienda.ClaveParams {
	t.Helper()
	consecutive, err := hacienda.FormatConsecutive(1, 1, "01", 42)
	require.NoError(t, err)
	return hacienda.ClaveParams{
		IssuerID:     testIssuerID,
		Consecutive:  consecutive,
		IssuedAt:     testIssuedAt,
		Situation:    "1",
		SecurityCode: testSecurityCode,
	}
}

func TestBuildClave_VectorExacto(t *testing.T) {
	clave, err := hacienda.BuildClave(buildTestParams(t))
	require.NoError(t, err, "BuildClave no debe fallar con componentes válidos")
	assert.Equal(t, testClaveExpected, clave,
		"la clave debe coincidir exactamente con el vector de referencia")
}

func TestBuildClave_SiempreCincuentaDigitos(t *testing.T) {
	clave, err := hacienda.BuildClave(buildTestParams(t))
	require.NoError(t, err)
	assert.Len(t, clave, hacienda.ClaveLength, "la clave debe tener exactamente 50 caracteres")
	for _, r := range clave {
		assert.True(t, r >= '0' && r <= '9', "todos los caracteres deben ser dígitos")
	}
}

func TestParseClave_RecuperaComponentes(t *testing.T) {
	params := buildTestParams(t)
	clave, err := hacienda.BuildClave(params)
	require.NoError(t, err)

	comp, err := hacienda.ParseClave(clave)
	require.NoError(t, err, "una clave generada por BuildClave debe ser decodificable")

	assert.Equal(t, hacienda.CountryCodeCR, comp.CountryCode)
	assert.Equal(t, 15, comp.Day)
	assert.Equal(t, 3, comp.Month)
	assert.Equal(t, 26, comp.Year)
	assert.Equal(t, "003101123456", comp.IssuerID, "la cédula se recupera con ceros a la izquierda")
	assert.Equal(t, params.Consecutive, comp.Consecutive)
	assert.Equal(t, "1", comp.Situation)
	assert.Equal(t, testSecurityCode, comp.SecurityCode)
}

func TestFormatConsecutive_AnchosFijos(t *testing.T) {
	consecutive, err := hacienda.FormatConsecutive(2, 13, "04", 7)
	require.NoError(t, err)
	assert.Equal(t, "00200013040000000007", consecutive)
	assert.Len(t, consecutive, 20)
}

func TestParseConsecutive_RoundTrip(t *testing.T) {
	consecutive, err := hacienda.FormatConsecutive(5, 321, "01", 999)
	require.NoError(t, err)
	comp, err := hacienda.ParseConsecutive(consecutive)
	require.NoError(t, err)
	assert.Equal(t, 5, comp.Branch)
	assert.Equal(t, 321, comp.Terminal)
	assert.Equal(t, "01", comp.DocType)
	assert.Equal(t, int64(999), comp.Sequence)
}

// ── Errores de validación ─────────────────────────────────────────────────────

func TestBuildClave_ErrorSiCedulaMuyLarga(t *testing.T) {
	p := buildTestParams(t)
	p.IssuerID = "1234567890123" // 13 dígitos, excede el ancho de 12
	_, err := hacienda.BuildClave(p)
	assert.ErrorIs(t, err, domain.ErrInvalidKeyComponents)
}

func TestBuildClave_ErrorSiSituacionInvalida(t *testing.T) {
	p := buildTestParams(t)
	p.Situation = "x"
	_, err := hacienda.BuildClave(p)
	assert.ErrorIs(t, err, domain.ErrInvalidKeyComponents)
}

func TestBuildClave_ErrorSiCodigoSeguridadCorto(t *testing.T) {
	p := buildTestParams(t)
	p.SecurityCode = "1234"
	_, err := hacienda.BuildClave(p)
	assert.ErrorIs(t, err, domain.ErrInvalidKeyComponents)
}

func TestFormatConsecutive_ErrorSiSecuenciaAgotada(t *testing.T) {
	_, err := hacienda.FormatConsecutive(1, 1, "01", hacienda.MaxSequence+1)
	assert.ErrorIs(t, err, domain.ErrInvalidKeyComponents)
}

func TestParseClave_ErrorSiNoNumerica(t *testing.T) {
	bad := strings.Repeat("5", 49) + "x"
	_, err := hacienda.ParseClave(bad)
	assert.ErrorIs(t, err, domain.ErrInvalidKeyComponents)
}

// ── Código de seguridad estable ───────────────────────────────────────────────

func TestStableSecurityCode_DeterministaPorEmpresaYAmbiente(t *testing.T) {
	a := hacienda.StableSecurityCode("empresa-1", "sandbox")
	b := hacienda.StableSecurityCode("empresa-1", "sandbox")
	c := hacienda.StableSecurityCode("empresa-1", "production")
	d := hacienda.StableSecurityCode("empresa-2", "sandbox")

	assert.Equal(t, a, b, "misma empresa y ambiente producen siempre el mismo código")
	assert.Len(t, a, 8)
	assert.NotEqual(t, a, c, "cambiar de ambiente cambia el código")
	assert.NotEqual(t, a, d, "empresas distintas tienen códigos distintos")
}
