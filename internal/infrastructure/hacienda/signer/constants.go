// Constantes para firma XAdES-EPES de comprobantes electrónicos (DGT-R-48-2016).

package signer

// Política de firma de la Dirección General de Tributación (obligatoria para XAdES-EPES).
const (
	SignaturePolicyURL = "https://atv.hacienda.go.cr/ATV/ComprobanteElectronico/docs/esquemas/2016/v4.2/ResolucionComprobantesElectronicosDGT-R-48-2016_4.2.pdf"
)

// SigPolicyHashDigest es el SHA-256 del PDF de la política de firma (Base64).
var SigPolicyHashDigest = "V8lVVNGDCPen6VELRD1Ja8HARFk/vLzfeoCJTKGRVnM="

// Namespaces y algoritmos XMLDSig / XAdES.
const (
	NamespaceDS        = "http://www.w3.org/2000/09/xmldsig#"
	NamespaceXAdES     = "http://uri.etsi.org/01903/v1.3.2#"
	AlgC14N            = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
	AlgRSASHA256       = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
	AlgSHA256          = "http://www.w3.org/2000/09/xmldsig#sha256"
	TransformEnveloped = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"
)
