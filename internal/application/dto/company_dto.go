package dto

// CreateCompanyRequest body para POST /api/companies.
type CreateCompanyRequest struct {
	Name             string `json:"name"`
	TradeName        string `json:"trade_name,omitempty"`
	IDType           string `json:"id_type"`
	IDNumber         string `json:"id_number"`
	EconomicActivity string `json:"economic_activity"`
	Province         string `json:"province"`
	Canton           string `json:"canton"`
	District         string `json:"district"`
	AddressDetails   string `json:"address_details,omitempty"`
	Phone            string `json:"phone,omitempty"`
	Email            string `json:"email"`
}

// CompanyResponse emisor en respuestas.
type CompanyResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	TradeName        string `json:"trade_name,omitempty"`
	IDType           string `json:"id_type"`
	IDNumber         string `json:"id_number"`
	EconomicActivity string `json:"economic_activity"`
	Province         string `json:"province"`
	Canton           string `json:"canton"`
	District         string `json:"district"`
	Email            string `json:"email"`
	Status           string `json:"status"`
}

// SwitchEnvironmentRequest body para POST /api/companies/:id/environment.
// Cambiar de ambiente no reinicia contadores: cada ambiente mantiene los suyos.
type SwitchEnvironmentRequest struct {
	Environment string `json:"environment"` // sandbox|production
}
