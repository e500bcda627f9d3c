package postgres

import (
	"context"
	"fmt"

	"github.com/ticodev/facturele-api/internal/domain"
	"github.com/ticodev/facturele-api/internal/domain/entity"
	"github.com/ticodev/facturele-api/internal/domain/repository"
)

// Asegura que CompanyRepo implementa repository.CompanyRepository.
var _ repository.CompanyRepository = (*CompanyRepo)(nil)

// CompanyRepo implementación del puerto CompanyRepository sobre PostgreSQL.
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construye el adaptador de persistencia para empresas.
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

// Create persiste una nueva empresa emisora.
func (r *CompanyRepo) Create(ctx context.Context, company *entity.Company) error {
	query := `
		INSERT INTO companies (id, name, trade_name, id_type, id_number, economic_activity,
			province, canton, district, address_details, phone, email, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		company.ID, company.Name, company.TradeName, company.IDType, company.IDNumber,
		company.EconomicActivity, company.Province, company.Canton, company.District,
		company.AddressDetails, company.Phone, company.Email, company.Status,
		company.CreatedAt, company.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

// GetByID obtiene una empresa por ID.
func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	query := companySelect + ` WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

// GetByIDNumber obtiene una empresa por cédula.
func (r *CompanyRepo) GetByIDNumber(ctx context.Context, idNumber string) (*entity.Company, error) {
	query := companySelect + ` WHERE id_number = $1`
	return r.scanOne(ctx, query, idNumber)
}

// Update actualiza una empresa existente.
func (r *CompanyRepo) Update(ctx context.Context, company *entity.Company) error {
	query := `
		UPDATE companies SET name = $2, trade_name = $3, economic_activity = $4,
			province = $5, canton = $6, district = $7, address_details = $8,
			phone = $9, email = $10, status = $11, updated_at = $12
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		company.ID, company.Name, company.TradeName, company.EconomicActivity,
		company.Province, company.Canton, company.District, company.AddressDetails,
		company.Phone, company.Email, company.Status, company.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List devuelve empresas con paginación.
func (r *CompanyRepo) List(ctx context.Context, limit, offset int) ([]*entity.Company, error) {
	query := companySelect + ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var list []*entity.Company
	for rows.Next() {
		var c entity.Company
		if err := scanCompany(rows, &c); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}

const companySelect = `
	SELECT id, name, trade_name, id_type, id_number, economic_activity,
		province, canton, district, address_details, phone, email, status, created_at, updated_at
	FROM companies`

type rowScanner interface{ Scan(dest ...any) error }

func scanCompany(row rowScanner, c *entity.Company) error {
	return row.Scan(
		&c.ID, &c.Name, &c.TradeName, &c.IDType, &c.IDNumber, &c.EconomicActivity,
		&c.Province, &c.Canton, &c.District, &c.AddressDetails, &c.Phone, &c.Email,
		&c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
}

func (r *CompanyRepo) scanOne(ctx context.Context, query string, args ...any) (*entity.Company, error) {
	var c entity.Company
	if err := scanCompany(r.q.QueryRow(ctx, query, args...), &c); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return &c, nil
}
