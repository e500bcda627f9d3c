package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ticodev/facturele-api/internal/application/billing"
	"github.com/ticodev/facturele-api/internal/application/dto"
	"github.com/ticodev/facturele-api/internal/domain"
	"github.com/ticodev/facturele-api/internal/domain/entity"
	"github.com/ticodev/facturele-api/internal/domain/repository"
	pkghacienda "github.com/ticodev/facturele-api/pkg/hacienda"
)

// CompanyUseCase aplica reglas de negocio para emisores (casos de uso).
type CompanyUseCase struct {
	repo repository.CompanyRepository
	env  *billing.EnvironmentSwitch
}

// NewCompanyUseCase construye el caso de uso con el puerto de persistencia y
// el conmutador de ambiente de emisión.
func NewCompanyUseCase(repo repository.CompanyRepository, env *billing.EnvironmentSwitch) *CompanyUseCase {
	return &CompanyUseCase{repo: repo, env: env}
}

// Create registra un emisor. Devuelve domain.ErrDuplicate si la cédula ya existe.
func (uc *CompanyUseCase) Create(ctx context.Context, in dto.CreateCompanyRequest) (*dto.CompanyResponse, error) {
	if in.Name == "" || in.IDNumber == "" || in.EconomicActivity == "" {
		return nil, domain.ErrInvalidInput
	}
	if !pkghacienda.ValidIDTypes[in.IDType] {
		return nil, domain.ErrInvalidInput
	}
	existing, _ := uc.repo.GetByIDNumber(ctx, in.IDNumber)
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	now := time.Now()
	company := &entity.Company{
		ID:               uuid.New().String(),
		Name:             in.Name,
		TradeName:        in.TradeName,
		IDType:           in.IDType,
		IDNumber:         in.IDNumber,
		EconomicActivity: in.EconomicActivity,
		Province:         in.Province,
		Canton:           in.Canton,
		District:         in.District,
		AddressDetails:   in.AddressDetails,
		Phone:            in.Phone,
		Email:            in.Email,
		Status:           "active",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := uc.repo.Create(ctx, company); err != nil {
		return nil, err
	}
	return entityToCompanyResponse(company), nil
}

// GetByID obtiene un emisor por ID.
func (uc *CompanyUseCase) GetByID(ctx context.Context, id string) (*dto.CompanyResponse, error) {
	company, err := uc.repo.GetByID(ctx, id)
	if err != nil || company == nil {
		return nil, domain.ErrNotFound
	}
	return entityToCompanyResponse(company), nil
}

// List lista emisores con paginación.
func (uc *CompanyUseCase) List(ctx context.Context, limit, offset int) ([]*dto.CompanyResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	list, err := uc.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.CompanyResponse, 0, len(list))
	for _, c := range list {
		out = append(out, entityToCompanyResponse(c))
	}
	return out, nil
}

// SwitchEnvironment cambia el ambiente activo de emisión (sandbox/producción).
// Los contadores no se reinician: cada ambiente conserva los suyos.
func (uc *CompanyUseCase) SwitchEnvironment(ctx context.Context, companyID string, in dto.SwitchEnvironmentRequest) error {
	company, err := uc.repo.GetByID(ctx, companyID)
	if err != nil || company == nil {
		return domain.ErrNotFound
	}
	return uc.env.Set(in.Environment)
}

// CurrentEnvironment devuelve el ambiente activo.
func (uc *CompanyUseCase) CurrentEnvironment() string {
	return uc.env.Current()
}

func entityToCompanyResponse(c *entity.Company) *dto.CompanyResponse {
	if c == nil {
		return nil
	}
	return &dto.CompanyResponse{
		ID:               c.ID,
		Name:             c.Name,
		TradeName:        c.TradeName,
		IDType:           c.IDType,
		IDNumber:         c.IDNumber,
		EconomicActivity: c.EconomicActivity,
		Province:         c.Province,
		Canton:           c.Canton,
		District:         c.District,
		Email:            c.Email,
		Status:           c.Status,
	}
}
