package repository

import (
	"context"

	"github.com/ticodev/facturele-api/internal/domain/entity"
)

// ClientRepository define el puerto de persistencia para Client (DIP).
type ClientRepository interface {
	Create(ctx context.Context, client *entity.Client) error
	GetByID(ctx context.Context, id string) (*entity.Client, error)

	// GetByCompanyAndIDNumber busca un receptor por su identificación dentro
	// de la empresa. Es la consulta previa al armado de una factura: el
	// receptor debe existir antes de emitir.
	GetByCompanyAndIDNumber(ctx context.Context, companyID, idNumber string) (*entity.Client, error)

	Update(ctx context.Context, client *entity.Client) error
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Client, error)
	Delete(ctx context.Context, id string) error
}
