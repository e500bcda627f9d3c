// Package hacienda: interfaz para la firma digital de comprobantes XML (XAdES-EPES).

package hacienda

import "crypto/tls"

// Signer firma el XML de un comprobante y devuelve el XML con la firma inyectada.
type Signer interface {
	// Sign toma el XML del comprobante (sin firma) y el certificado con llave
	// privada, y retorna el XML con el nodo ds:Signature como último hijo de la raíz.
	Sign(xmlBytes []byte, cert tls.Certificate) ([]byte, error)
}
