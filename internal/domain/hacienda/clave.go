// Package hacienda: clave numérica y consecutivo del comprobante electrónico
// de Costa Rica. La clave de 50 dígitos y el consecutivo de 20 siguen la
// convención nacional de numeración:
//
//	clave       = país(3) + fecha DDMMAA(6) + cédula emisor(12) + consecutivo(20) + situación(1) + código seguridad(8)
//	consecutivo = sucursal(3) + terminal(5) + tipo documento(2) + secuencia(10)
package hacienda

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ticodev/facturele-api/internal/domain"
)

// Anchos fijos de los componentes de la clave.
const (
	countryCodeWidth = 3
	dateWidth        = 6
	issuerIDWidth    = 12
	consecutiveWidth = 20
	situationWidth   = 1
	securityWidth    = 8

	// ClaveLength longitud total de la clave numérica.
	ClaveLength = 50

	// CountryCodeCR código telefónico de país usado en la clave.
	CountryCodeCR = "506"
)

// Anchos de los componentes del consecutivo.
const (
	branchWidth   = 3
	terminalWidth = 5
	docTypeWidth  = 2
	sequenceWidth = 10

	// MaxSequence valor máximo de la secuencia (10 dígitos).
	MaxSequence = int64(9_999_999_999)
)

// ClaveParams componentes para construir la clave numérica.
type ClaveParams struct {
	IssuerID     string    // Cédula del emisor, solo dígitos, máx. 12
	Consecutive  string    // Consecutivo ya codificado (20 dígitos)
	IssuedAt     time.Time // Fecha de emisión (se codifica DDMMAA)
	Situation    string    // "1" normal, "2" contingencia, "3" sin internet
	SecurityCode string    // 8 dígitos, estable por empresa
}

// ClaveComponents resultado de decodificar una clave (auditoría).
type ClaveComponents struct {
	CountryCode  string
	Day          int
	Month        int
	Year         int // dos dígitos (AA)
	IssuerID     string // 12 dígitos con ceros a la izquierda
	Consecutive  string
	Situation    string
	SecurityCode string
}

// ConsecutiveComponents resultado de decodificar un consecutivo.
type ConsecutiveComponents struct {
	Branch   int
	Terminal int
	DocType  string
	Sequence int64
}

// FormatConsecutive codifica el consecutivo de 20 dígitos:
// sucursal(3) + terminal(5) + tipo(2) + secuencia(10).
func FormatConsecutive(branch, terminal int, docType string, sequence int64) (string, error) {
	if branch < 0 || branch > 999 {
		return "", fmt.Errorf("%w: sucursal %d fuera de rango (0-999)", domain.ErrInvalidKeyComponents, branch)
	}
	if terminal < 0 || terminal > 99_999 {
		return "", fmt.Errorf("%w: terminal %d fuera de rango (0-99999)", domain.ErrInvalidKeyComponents, terminal)
	}
	if len(docType) != docTypeWidth || !isDigits(docType) {
		return "", fmt.Errorf("%w: tipo de documento %q debe ser 2 dígitos", domain.ErrInvalidKeyComponents, docType)
	}
	if sequence <= 0 || sequence > MaxSequence {
		return "", fmt.Errorf("%w: secuencia %d fuera de rango (1-%d)", domain.ErrInvalidKeyComponents, sequence, MaxSequence)
	}
	return fmt.Sprintf("%03d%05d%s%010d", branch, terminal, docType, sequence), nil
}

// ParseConsecutive decodifica un consecutivo de 20 dígitos en sus componentes.
func ParseConsecutive(consecutive string) (*ConsecutiveComponents, error) {
	if len(consecutive) != consecutiveWidth || !isDigits(consecutive) {
		return nil, fmt.Errorf("%w: consecutivo debe ser %d dígitos, se recibió %q", domain.ErrInvalidKeyComponents, consecutiveWidth, consecutive)
	}
	branch, _ := strconv.Atoi(consecutive[0:3])
	terminal, _ := strconv.Atoi(consecutive[3:8])
	seq, _ := strconv.ParseInt(consecutive[10:20], 10, 64)
	return &ConsecutiveComponents{
		Branch:   branch,
		Terminal: terminal,
		DocType:  consecutive[8:10],
		Sequence: seq,
	}, nil
}

// BuildClave construye la clave numérica de 50 dígitos. Falla con
// ErrInvalidKeyComponents si algún componente no se puede normalizar a su ancho fijo.
func BuildClave(p ClaveParams) (string, error) {
	issuer := onlyDigits(p.IssuerID)
	if issuer == "" {
		return "", fmt.Errorf("%w: cédula del emisor vacía", domain.ErrInvalidKeyComponents)
	}
	if len(issuer) > issuerIDWidth {
		return "", fmt.Errorf("%w: cédula del emisor %q excede %d dígitos", domain.ErrInvalidKeyComponents, issuer, issuerIDWidth)
	}
	issuer = leftPadZeros(issuer, issuerIDWidth)

	if len(p.Consecutive) != consecutiveWidth || !isDigits(p.Consecutive) {
		return "", fmt.Errorf("%w: consecutivo debe ser %d dígitos", domain.ErrInvalidKeyComponents, consecutiveWidth)
	}
	if p.IssuedAt.IsZero() {
		return "", fmt.Errorf("%w: fecha de emisión requerida", domain.ErrInvalidKeyComponents)
	}
	if len(p.Situation) != situationWidth || !isDigits(p.Situation) {
		return "", fmt.Errorf("%w: situación %q debe ser 1 dígito", domain.ErrInvalidKeyComponents, p.Situation)
	}
	if len(p.SecurityCode) != securityWidth || !isDigits(p.SecurityCode) {
		return "", fmt.Errorf("%w: código de seguridad %q debe ser %d dígitos", domain.ErrInvalidKeyComponents, p.SecurityCode, securityWidth)
	}

	date := p.IssuedAt.Format("020106") // DDMMAA

	clave := CountryCodeCR + date + issuer + p.Consecutive + p.Situation + p.SecurityCode
	if len(clave) != ClaveLength {
		return "", fmt.Errorf("%w: longitud resultante %d != %d", domain.ErrInvalidKeyComponents, len(clave), ClaveLength)
	}
	return clave, nil
}

// ParseClave decodifica una clave de 50 dígitos en sus componentes (auditoría).
func ParseClave(clave string) (*ClaveComponents, error) {
	if len(clave) != ClaveLength || !isDigits(clave) {
		return nil, fmt.Errorf("%w: la clave debe ser %d dígitos numéricos, se recibió %q", domain.ErrInvalidKeyComponents, ClaveLength, clave)
	}
	day, _ := strconv.Atoi(clave[3:5])
	month, _ := strconv.Atoi(clave[5:7])
	year, _ := strconv.Atoi(clave[7:9])
	if day < 1 || day > 31 || month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: fecha %q inválida en la clave", domain.ErrInvalidKeyComponents, clave[3:9])
	}
	return &ClaveComponents{
		CountryCode:  clave[0:3],
		Day:          day,
		Month:        month,
		Year:         year,
		IssuerID:     clave[9:21],
		Consecutive:  clave[21:41],
		Situation:    clave[41:42],
		SecurityCode: clave[42:50],
	}, nil
}

// StableSecurityCode deriva el código de seguridad de 8 dígitos de forma
// determinista a partir de la empresa y el ambiente. El mismo emisor produce
// siempre el mismo código, lo que mantiene la trazabilidad de sus claves.
func StableSecurityCode(companyID, environment string) string {
	sum := sha256.Sum256([]byte(companyID + "|" + environment))
	n := binary.BigEndian.Uint64(sum[:8]) % 100_000_000
	return fmt.Sprintf("%08d", n)
}

// ── helpers ──────────────────────────────────────────────────────────────────

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func leftPadZeros(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
