package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/ticodev/facturele-api/internal/application/billing"
	"github.com/ticodev/facturele-api/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	CompanyUC      *usecase.CompanyUseCase
	ProductUC      *usecase.ProductUseCase
	ClientUC       *billing.ClientUseCase
	CreateDocument *billing.CreateDocumentUseCase
	JWTSecret      string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Companies (registro público; el cambio de ambiente requiere token)
	companies := api.Group("/companies")
	companyHandler := NewCompanyHandler(deps.CompanyUC)
	companies.Get("/", companyHandler.List)
	companies.Post("/", companyHandler.Create)
	companies.Get("/:id", companyHandler.GetByID)
	companies.Post("/:id/environment", AuthMiddleware(deps.JWTSecret), companyHandler.SwitchEnvironment)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Products (protegido, catálogo CABYS)
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", productHandler.Delete)

	// Clients (protegido, receptores)
	clients := protected.Group("/clients")
	clientHandler := NewClientHandler(deps.ClientUC)
	clients.Post("/", clientHandler.Create)
	clients.Get("/", clientHandler.List)
	clients.Get("/:id", clientHandler.GetByID)
	clients.Put("/:id", clientHandler.Update)
	clients.Delete("/:id", clientHandler.Delete)

	// Documents (protegido, comprobantes electrónicos)
	documents := protected.Group("/documents")
	documentHandler := NewDocumentHandler(deps.CreateDocument)
	documents.Post("/", documentHandler.Create)
	documents.Get("/", documentHandler.List)
	documents.Get("/sequence", documentHandler.GetSequence)
	documents.Get("/:id", documentHandler.GetByID)
	documents.Get("/:id/status", documentHandler.GetStatus)
	documents.Get("/:id/xml", documentHandler.ExportXML)
	documents.Post("/:id/resubmit", documentHandler.Resubmit)
}
