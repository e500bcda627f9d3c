package entity

import "time"

// Client representa un receptor de comprobantes de la empresa.
// Para tiquetes el receptor se sustituye siempre por el consumidor final genérico.
type Client struct {
	ID        string
	CompanyID string
	Name      string
	IDType    string // Tipo de identificación ("01" física, "02" jurídica, ...)
	IDNumber  string
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
