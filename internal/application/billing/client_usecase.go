package billing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ticodev/facturele-api/internal/application/dto"
	"github.com/ticodev/facturele-api/internal/domain"
	"github.com/ticodev/facturele-api/internal/domain/entity"
	"github.com/ticodev/facturele-api/internal/domain/repository"
	pkghacienda "github.com/ticodev/facturele-api/pkg/hacienda"
)

// ClientUseCase casos de uso para receptores (facturación).
type ClientUseCase struct {
	repo repository.ClientRepository
}

// NewClientUseCase construye el caso de uso.
func NewClientUseCase(repo repository.ClientRepository) *ClientUseCase {
	return &ClientUseCase{repo: repo}
}

// Create registra un nuevo receptor.
func (uc *ClientUseCase) Create(ctx context.Context, companyID string, in dto.CreateClientRequest) (*dto.ClientResponse, error) {
	if in.Name == "" || in.IDNumber == "" {
		return nil, domain.ErrInvalidInput
	}
	if !pkghacienda.ValidIDTypes[in.IDType] {
		return nil, domain.ErrInvalidInput
	}
	existing, _ := uc.repo.GetByCompanyAndIDNumber(ctx, companyID, in.IDNumber)
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	now := time.Now()
	client := &entity.Client{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Name:      in.Name,
		IDType:    in.IDType,
		IDNumber:  in.IDNumber,
		Email:     in.Email,
		Phone:     in.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, client); err != nil {
		return nil, err
	}
	return toClientResponse(client), nil
}

// Get obtiene un receptor validando pertenencia a la empresa.
func (uc *ClientUseCase) Get(ctx context.Context, companyID, id string) (*dto.ClientResponse, error) {
	client, err := uc.repo.GetByID(ctx, id)
	if err != nil || client == nil {
		return nil, domain.ErrNotFound
	}
	if client.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return toClientResponse(client), nil
}

// Update actualiza los datos de contacto del receptor. La identificación es
// inmutable: cambiar de cédula es crear otro receptor.
func (uc *ClientUseCase) Update(ctx context.Context, companyID, id string, in dto.UpdateClientRequest) (*dto.ClientResponse, error) {
	client, err := uc.repo.GetByID(ctx, id)
	if err != nil || client == nil {
		return nil, domain.ErrNotFound
	}
	if client.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	if in.Name != "" {
		client.Name = in.Name
	}
	if in.Email != "" {
		client.Email = in.Email
	}
	if in.Phone != "" {
		client.Phone = in.Phone
	}
	client.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, client); err != nil {
		return nil, err
	}
	return toClientResponse(client), nil
}

// List lista receptores de la empresa.
func (uc *ClientUseCase) List(ctx context.Context, companyID string, limit, offset int) ([]*dto.ClientResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	list, err := uc.repo.ListByCompany(ctx, companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.ClientResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toClientResponse(c))
	}
	return out, nil
}

// Delete elimina un receptor.
func (uc *ClientUseCase) Delete(ctx context.Context, companyID, id string) error {
	client, err := uc.repo.GetByID(ctx, id)
	if err != nil || client == nil {
		return domain.ErrNotFound
	}
	if client.CompanyID != companyID {
		return domain.ErrForbidden
	}
	return uc.repo.Delete(ctx, id)
}

func toClientResponse(c *entity.Client) *dto.ClientResponse {
	return &dto.ClientResponse{
		ID:        c.ID,
		CompanyID: c.CompanyID,
		Name:      c.Name,
		IDType:    c.IDType,
		IDNumber:  c.IDNumber,
		Email:     c.Email,
		Phone:     c.Phone,
	}
}
