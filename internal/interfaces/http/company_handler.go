package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/ticodev/facturele-api/internal/application/dto"
	"github.com/ticodev/facturele-api/internal/application/usecase"
)

// CompanyHandler maneja las peticiones HTTP de empresas emisoras.
type CompanyHandler struct {
	uc *usecase.CompanyUseCase
}

// NewCompanyHandler construye el handler.
func NewCompanyHandler(uc *usecase.CompanyUseCase) *CompanyHandler {
	return &CompanyHandler{uc: uc}
}

// Create registra una empresa emisora con sus datos ante Hacienda.
// POST /api/companies
func (h *CompanyHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateCompanyRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	company, err := h.uc.Create(c.Context(), in)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(company)
}

// GetByID obtiene una empresa.
// GET /api/companies/:id
func (h *CompanyHandler) GetByID(c *fiber.Ctx) error {
	company, err := h.uc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(company)
}

// List lista empresas registradas.
// GET /api/companies
func (h *CompanyHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	companies, err := h.uc.List(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(fiber.Map{
		"data": companies,
		"page": dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

// SwitchEnvironment cambia el ambiente de emisión (sandbox|production) en caliente.
// Los contadores de consecutivos de cada ambiente son independientes y nunca se reinician.
// POST /api/companies/:id/environment
func (h *CompanyHandler) SwitchEnvironment(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	if companyID != c.Params("id") {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "solo la propia empresa puede cambiar su ambiente"})
	}
	var in dto.SwitchEnvironmentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.uc.SwitchEnvironment(c.Context(), c.Params("id"), in); err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(fiber.Map{"environment": h.uc.CurrentEnvironment()})
}
