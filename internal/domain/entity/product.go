package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un bien o servicio facturable.
// CABYSCode es el código de clasificación de 13 dígitos exigido por Hacienda;
// determina (junto con TaxRate) el impuesto de la línea.
type Product struct {
	ID          string
	CompanyID   string
	Name        string
	CABYSCode   string          // 13 dígitos
	UnitMeasure string          // "Unid", "Sp", "kg", ...
	Price       decimal.Decimal // Precio en colones (moneda base)
	TaxRate     decimal.Decimal // Porcentaje de IVA (13, 4, 2, 1, ...)
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
