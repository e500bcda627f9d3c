package entity

import "time"

// Company representa una empresa emisora de comprobantes (multi-tenant, Costa Rica).
// Los campos de identificación y ubicación son obligatorios para el XML:
// el ensamblador rechaza comprobantes de emisores incompletos.
type Company struct {
	ID               string
	Name             string    // Razón social
	TradeName        string    // Nombre comercial (opcional)
	IDType           string    // Tipo de identificación ("01" física, "02" jurídica, ...)
	IDNumber         string    // Cédula (solo dígitos, máx. 12 para la clave)
	EconomicActivity string    // Código de actividad económica registrado ante Hacienda
	Province         string    // Ubicación: provincia (1 dígito)
	Canton           string    // Ubicación: cantón (2 dígitos)
	District         string    // Ubicación: distrito (2 dígitos)
	AddressDetails   string    // Otras señas
	Phone            string
	Email            string
	Status           string // active, suspended, inactive
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
