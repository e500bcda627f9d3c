package dto

// CreateClientRequest body para POST /api/clients.
type CreateClientRequest struct {
	Name     string `json:"name"`
	IDType   string `json:"id_type"`   // 01 física, 02 jurídica, 03 DIMEX, 04 NITE
	IDNumber string `json:"id_number"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// UpdateClientRequest body para PUT /api/clients/:id.
type UpdateClientRequest struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ClientResponse receptor en respuestas.
type ClientResponse struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Name      string `json:"name"`
	IDType    string `json:"id_type"`
	IDNumber  string `json:"id_number"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}
