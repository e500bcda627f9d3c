package repository

import (
	"context"

	"github.com/ticodev/facturele-api/internal/domain/entity"
)

// DocumentRepository define el puerto de persistencia para comprobantes electrónicos.
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, id string) (*entity.Document, error)

	// GetByClave busca un comprobante por su clave numérica de 50 dígitos.
	// Hacienda identifica los comprobantes por clave, no por UUID.
	GetByClave(ctx context.Context, clave string) (*entity.Document, error)

	Update(ctx context.Context, doc *entity.Document) error
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Document, error)

	// ListByStatus lista los comprobantes de una empresa en un estado dado.
	// Se usa para reintentar los PENDIENTE tras una caída de transporte.
	ListByStatus(ctx context.Context, companyID, status string, limit, offset int) ([]*entity.Document, error)
}
