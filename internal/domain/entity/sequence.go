package entity

import "fmt"

// SequenceScope identifica un contador de consecutivos:
// (empresa, tipo de documento, sucursal, terminal, ambiente).
// Cambiar de ambiente produce un ámbito distinto, con contador propio desde cero.
type SequenceScope struct {
	CompanyID   string
	DocType     string
	Branch      int
	Terminal    int
	Environment string
}

// Key devuelve la llave canónica del ámbito para mapas y persistencia.
func (s SequenceScope) Key() string {
	return fmt.Sprintf("%s|%s|%03d|%05d|%s", s.CompanyID, s.DocType, s.Branch, s.Terminal, s.Environment)
}

// SequenceRecord es el contador persistido de un ámbito. Counter es el último
// valor emitido; el siguiente comprobante recibe Counter+1.
type SequenceRecord struct {
	Scope   SequenceScope
	Counter int64
}
