// Normalización de moneda: el precio base en colones se fija una sola vez y el
// precio mostrado se deriva de él, de modo que cambiar de moneda repetidas
// veces nunca acumula error.

package hacienda

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ticodev/facturele-api/internal/domain"
	pkghacienda "github.com/ticodev/facturele-api/pkg/hacienda"
)

// BaseCurrency moneda base del sistema: todos los precios de catálogo están en colones.
const BaseCurrency = pkghacienda.CurrencyCRC

// BaseRate tipo de cambio de la moneda base (5 decimales).
var BaseRate = decimal.RequireFromString("1.00000")

// NormalizeLines fija el precio base de cada línea (si aún no está fijado) y
// deriva el precio unitario en la moneda destino:
//
//	destino == CRC → precio = base
//	destino != CRC → precio = base / tipoCambio (5 decimales)
//
// La operación es idempotente: BasePrice nunca se sobrescribe, así que repetir
// la normalización con la misma moneda y tipo de cambio no produce deriva.
// Falla con ErrInvalidExchangeRate si rate <= 0 con moneda distinta del colón;
// el caller debe usar el último tipo de cambio conocido o bloquear la emisión.
func NormalizeLines(lines []LineInput, targetCurrency string, rate decimal.Decimal) ([]LineInput, error) {
	if targetCurrency != BaseCurrency && !rate.IsPositive() {
		return nil, fmt.Errorf("%w: %s para %s", domain.ErrInvalidExchangeRate, rate, targetCurrency)
	}
	out := make([]LineInput, len(lines))
	for i, l := range lines {
		if l.BasePrice.IsZero() && !l.UnitPrice.IsZero() {
			// Primer contacto con la línea: el precio recibido está en colones.
			l.BasePrice = l.UnitPrice
		}
		if targetCurrency == BaseCurrency {
			l.UnitPrice = l.BasePrice
		} else {
			l.UnitPrice = l.BasePrice.DivRound(rate, 5)
		}
		out[i] = l
	}
	return out, nil
}

// EffectiveRate devuelve el tipo de cambio a registrar en el resumen:
// 1.00000 para colones, el tipo recibido (5 decimales) para otras monedas.
func EffectiveRate(targetCurrency string, rate decimal.Decimal) decimal.Decimal {
	if targetCurrency == BaseCurrency {
		return BaseRate
	}
	return rate.Round(5)
}
