package hacienda_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticodev/facturele-api/internal/domain"
	"github.com/ticodev/facturele-api/internal/domain/hacienda"
	pkghacienda "github.com/ticodev/facturele-api/pkg/hacienda"
)

func TestNormalizeLines_MonedaBaseNoCambiaPrecios(t *testing.T) {
	in := []hacienda.LineInput{lineaBase()}

	out, err := hacienda.NormalizeLines(in, pkghacienda.CurrencyCRC, hacienda.BaseRate)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].UnitPrice.Equal(dec("1000")))
	assert.True(t, out[0].BasePrice.Equal(dec("1000")), "en colones el precio base es el mismo precio unitario")
}

func TestNormalizeLines_ConvierteDolaresConElTipoDeCambio(t *testing.T) {
	in := []hacienda.LineInput{lineaBase()} // 1000 colones

	out, err := hacienda.NormalizeLines(in, pkghacienda.CurrencyUSD, dec("500"))
	require.NoError(t, err)
	assert.True(t, out[0].UnitPrice.Equal(dec("2")), "1000 CRC / 500 = 2 USD")
	assert.True(t, out[0].BasePrice.Equal(dec("1000")), "el precio base en colones no se toca")
}

// Normalizar dos veces no vuelve a dividir: el precio base se fija una sola vez.
func TestNormalizeLines_Idempotente(t *testing.T) {
	in := []hacienda.LineInput{lineaBase()}

	once, err := hacienda.NormalizeLines(in, pkghacienda.CurrencyUSD, dec("500"))
	require.NoError(t, err)
	twice, err := hacienda.NormalizeLines(once, pkghacienda.CurrencyUSD, dec("500"))
	require.NoError(t, err)

	assert.True(t, twice[0].UnitPrice.Equal(once[0].UnitPrice))
	assert.True(t, twice[0].BasePrice.Equal(once[0].BasePrice))
}

func TestNormalizeLines_ErrorSiTipoDeCambioInvalido(t *testing.T) {
	in := []hacienda.LineInput{lineaBase()}

	_, err := hacienda.NormalizeLines(in, pkghacienda.CurrencyUSD, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidExchangeRate)

	_, err = hacienda.NormalizeLines(in, pkghacienda.CurrencyEUR, dec("-1"))
	assert.ErrorIs(t, err, domain.ErrInvalidExchangeRate)
}

func TestEffectiveRate_CRCSiempreUno(t *testing.T) {
	got := hacienda.EffectiveRate(pkghacienda.CurrencyCRC, dec("512.34"))
	assert.True(t, got.Equal(hacienda.BaseRate))
}

func TestEffectiveRate_RedondeaACincoDecimales(t *testing.T) {
	got := hacienda.EffectiveRate(pkghacienda.CurrencyUSD, dec("512.3456789"))
	assert.Equal(t, "512.34568", got.StringFixed(5))
}
