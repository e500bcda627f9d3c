package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/ticodev/facturele-api/internal/application/billing"
	"github.com/ticodev/facturele-api/internal/application/dto"
)

// DocumentHandler maneja las peticiones HTTP de comprobantes electrónicos (protegido).
type DocumentHandler struct {
	uc *billing.CreateDocumentUseCase
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(uc *billing.CreateDocumentUseCase) *DocumentHandler {
	return &DocumentHandler{uc: uc}
}

// Create emite un comprobante: acuña la clave, ensambla, persiste y dispara la
// emisión asíncrona. Responde 202 con el comprobante PENDIENTE; el estado
// final se consulta en GET /:id/status.
// POST /api/documents
func (h *DocumentHandler) Create(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreateDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	doc, err := h.uc.Create(c.Context(), companyID, in)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(doc)
}

// GetByID obtiene el detalle completo de un comprobante.
// GET /api/documents/:id
func (h *DocumentHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	doc, err := h.uc.GetDocument(c.Context(), companyID, id)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(doc)
}

// GetStatus respuesta ligera para polling del veredicto de Hacienda.
// GET /api/documents/:id/status
func (h *DocumentHandler) GetStatus(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	status, err := h.uc.GetStatus(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(status)
}

// ExportXML descarga el XML (firmado si la firma estaba disponible) del comprobante.
// GET /api/documents/:id/xml
func (h *DocumentHandler) ExportXML(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	xmlBytes, filename, err := h.uc.ExportXML(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/xml")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(xmlBytes)
}

// Resubmit reenvía manualmente un comprobante PENDIENTE con el mismo XML y la
// misma clave. Nunca acuña un consecutivo nuevo.
// POST /api/documents/:id/resubmit
func (h *DocumentHandler) Resubmit(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	if err := h.uc.Resubmit(c.Context(), companyID, c.Params("id")); err != nil {
		return writeDomainError(c, err)
	}
	return c.SendStatus(fiber.StatusAccepted)
}

// GetSequence consulta el último consecutivo emitido para un alcance de
// numeración en el ambiente activo.
// GET /api/documents/sequence?doc_type=01&branch=1&terminal=1
func (h *DocumentHandler) GetSequence(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	status, err := h.uc.SequenceStatus(c.Context(), companyID,
		c.Query("doc_type"), c.QueryInt("branch"), c.QueryInt("terminal"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(status)
}

// List lista comprobantes de la empresa; ?status= filtra por estado.
// GET /api/documents
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	docs, err := h.uc.List(c.Context(), companyID, c.Query("status"), page.Limit, page.Offset)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(fiber.Map{
		"data": docs,
		"page": dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}
