package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/ticodev/facturele-api/internal/domain"
	"github.com/ticodev/facturele-api/internal/domain/entity"
	"github.com/ticodev/facturele-api/internal/domain/repository"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// DocumentRepo persiste comprobantes electrónicos. La cabecera y las líneas
// viven en tablas separadas; Create inserta ambas en una sola transacción para
// que nunca exista un comprobante sin detalle.
type DocumentRepo struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository construye el adaptador de persistencia de comprobantes.
func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepo {
	return &DocumentRepo{pool: pool}
}

// Create persiste el comprobante completo (cabecera + líneas) atómicamente.
// La clave es única: emitir dos veces el mismo consecutivo es un error.
func (r *DocumentRepo) Create(ctx context.Context, doc *entity.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	issuerJSON, err := json.Marshal(doc.Issuer)
	if err != nil {
		return fmt.Errorf("marshal issuer: %w", err)
	}
	chargesJSON, err := json.Marshal(doc.OtherCharges)
	if err != nil {
		return fmt.Errorf("marshal other charges: %w", err)
	}

	query := `
		INSERT INTO documents (id, company_id, doc_type, branch, terminal, environment,
			clave, consecutive, issued_at, issuer, receiver_name, receiver_id_type,
			receiver_id_number, receiver_email, sale_condition, payment_methods,
			other_charges, currency_code, exchange_rate, gross_sales, discounts,
			net_sales, tax, exonerated, other_charges_total, grand_total, notes,
			status, failed_stage, xml_signed, reference_id, response_errors,
			email_attempts, email_last_error, email_sent_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31,
			$32, $33, $34, $35, $36, $37)`
	_, err = tx.Exec(ctx, query,
		doc.ID, doc.CompanyID, doc.DocType, doc.Branch, doc.Terminal, doc.Environment,
		doc.Clave, doc.Consecutive, doc.IssuedAt, issuerJSON,
		doc.Receiver.Name, doc.Receiver.IDType, doc.Receiver.IDNumber, doc.Receiver.Email,
		doc.SaleCondition, doc.PaymentMethods, chargesJSON,
		doc.Summary.CurrencyCode, doc.Summary.ExchangeRate, doc.Summary.GrossSales,
		doc.Summary.Discounts, doc.Summary.NetSales, doc.Summary.Tax,
		doc.Summary.Exonerated, doc.Summary.OtherChargesTotal, doc.Summary.GrandTotal,
		doc.Notes, doc.Status, nullIfEmpty(doc.FailedStage), nullIfEmpty(doc.XMLSigned),
		nullIfEmpty(doc.ReferenceID), nullIfEmpty(doc.ResponseErrors),
		doc.EmailAttempts, nullIfEmpty(doc.EmailLastError), doc.EmailSentAt,
		doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("clave %s ya existe: %w", doc.Clave, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert document: %w", err)
	}

	for _, line := range doc.Lines {
		if err := insertLine(ctx, tx, doc.ID, &line); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func insertLine(ctx context.Context, q Querier, docID string, l *entity.LineItem) error {
	var exJSON []byte
	if l.Exemption != nil {
		var err error
		exJSON, err = json.Marshal(l.Exemption)
		if err != nil {
			return fmt.Errorf("marshal exemption: %w", err)
		}
	}
	query := `
		INSERT INTO document_lines (document_id, line_number, cabys_code, description,
			quantity, unit_measure, unit_price, base_price, discount, discount_reason,
			tax_code, tax_rate_code, tax_rate, tax_amount, subtotal, line_total,
			exemption, pharma_form, serial_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := q.Exec(ctx, query,
		docID, l.Number, l.CABYSCode, l.Description, l.Quantity, l.UnitMeasure,
		l.UnitPrice, l.BasePrice, l.Discount, nullIfEmpty(l.DiscountReason),
		l.TaxCode, l.TaxRateCode, l.TaxRate, l.TaxAmount, l.Subtotal, l.LineTotal,
		exJSON, nullIfEmpty(l.PharmaForm), nullIfEmpty(l.SerialNumber),
	)
	if err != nil {
		return fmt.Errorf("insert document line %d: %w", l.Number, err)
	}
	return nil
}

// GetByID obtiene un comprobante completo (cabecera + líneas) por ID.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*entity.Document, error) {
	return r.getOne(ctx, documentSelect+` WHERE id = $1`, id)
}

// GetByClave obtiene un comprobante por su clave de 50 dígitos.
func (r *DocumentRepo) GetByClave(ctx context.Context, clave string) (*entity.Document, error) {
	return r.getOne(ctx, documentSelect+` WHERE clave = $1`, clave)
}

// Update actualiza los campos de estado y auditoría del comprobante. La clave,
// el consecutivo y las líneas son inmutables tras la emisión.
func (r *DocumentRepo) Update(ctx context.Context, doc *entity.Document) error {
	query := `
		UPDATE documents
		SET status           = $2,
		    failed_stage     = $3,
		    xml_signed       = COALESCE($4, xml_signed),
		    reference_id     = COALESCE($5, reference_id),
		    response_errors  = $6,
		    email_attempts   = $7,
		    email_last_error = $8,
		    email_sent_at    = $9,
		    updated_at       = $10
		WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query,
		doc.ID, doc.Status, nullIfEmpty(doc.FailedStage), nullIfEmpty(doc.XMLSigned),
		nullIfEmpty(doc.ReferenceID), nullIfEmpty(doc.ResponseErrors),
		doc.EmailAttempts, nullIfEmpty(doc.EmailLastError), doc.EmailSentAt,
		doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByCompany lista comprobantes de la empresa, del más reciente al más antiguo.
func (r *DocumentRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Document, error) {
	query := documentSelect + ` WHERE company_id = $1 ORDER BY issued_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, companyID, limit, offset)
}

// ListByStatus lista comprobantes de la empresa en un estado dado (ej. PENDIENTE para reenvío).
func (r *DocumentRepo) ListByStatus(ctx context.Context, companyID, status string, limit, offset int) ([]*entity.Document, error) {
	query := documentSelect + ` WHERE company_id = $1 AND status = $2 ORDER BY issued_at DESC LIMIT $3 OFFSET $4`
	return r.list(ctx, query, companyID, status, limit, offset)
}

// ── scan ──────────────────────────────────────────────────────────────────────

const documentSelect = `
	SELECT id, company_id, doc_type, branch, terminal, environment,
		clave, consecutive, issued_at, issuer, receiver_name, receiver_id_type,
		receiver_id_number, receiver_email, sale_condition, payment_methods,
		other_charges, currency_code, exchange_rate, gross_sales, discounts,
		net_sales, tax, exonerated, other_charges_total, grand_total, notes,
		status, failed_stage, xml_signed, reference_id, response_errors,
		email_attempts, email_last_error, email_sent_at, created_at, updated_at
	FROM documents`

func scanDocument(row rowScanner, d *entity.Document) error {
	var issuerJSON, chargesJSON []byte
	var failedStage, xmlSigned, referenceID, responseErrors, emailLastError *string
	err := row.Scan(
		&d.ID, &d.CompanyID, &d.DocType, &d.Branch, &d.Terminal, &d.Environment,
		&d.Clave, &d.Consecutive, &d.IssuedAt, &issuerJSON,
		&d.Receiver.Name, &d.Receiver.IDType, &d.Receiver.IDNumber, &d.Receiver.Email,
		&d.SaleCondition, &d.PaymentMethods, &chargesJSON,
		&d.Summary.CurrencyCode, &d.Summary.ExchangeRate, &d.Summary.GrossSales,
		&d.Summary.Discounts, &d.Summary.NetSales, &d.Summary.Tax,
		&d.Summary.Exonerated, &d.Summary.OtherChargesTotal, &d.Summary.GrandTotal,
		&d.Notes, &d.Status, &failedStage, &xmlSigned, &referenceID, &responseErrors,
		&d.EmailAttempts, &emailLastError, &d.EmailSentAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(issuerJSON, &d.Issuer); err != nil {
		return fmt.Errorf("unmarshal issuer: %w", err)
	}
	if len(chargesJSON) > 0 {
		if err := json.Unmarshal(chargesJSON, &d.OtherCharges); err != nil {
			return fmt.Errorf("unmarshal other charges: %w", err)
		}
	}
	d.FailedStage = derefStr(failedStage)
	d.XMLSigned = derefStr(xmlSigned)
	d.ReferenceID = derefStr(referenceID)
	d.ResponseErrors = derefStr(responseErrors)
	d.EmailLastError = derefStr(emailLastError)
	return nil
}

func (r *DocumentRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Document, error) {
	var d entity.Document
	if err := scanDocument(r.pool.QueryRow(ctx, query, args...), &d); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	if err := r.loadLines(ctx, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DocumentRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Document, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var list []*entity.Document
	for rows.Next() {
		var d entity.Document
		if err := scanDocument(rows, &d); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		list = append(list, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, d := range list {
		if err := r.loadLines(ctx, d); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (r *DocumentRepo) loadLines(ctx context.Context, d *entity.Document) error {
	query := `
		SELECT line_number, cabys_code, description, quantity, unit_measure,
			unit_price, base_price, discount, discount_reason, tax_code,
			tax_rate_code, tax_rate, tax_amount, subtotal, line_total,
			exemption, pharma_form, serial_number
		FROM document_lines WHERE document_id = $1 ORDER BY line_number`
	rows, err := r.pool.Query(ctx, query, d.ID)
	if err != nil {
		return fmt.Errorf("load document lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l entity.LineItem
		var exJSON []byte
		var discountReason, pharmaForm, serialNumber *string
		var discount *decimal.Decimal
		err := rows.Scan(
			&l.Number, &l.CABYSCode, &l.Description, &l.Quantity, &l.UnitMeasure,
			&l.UnitPrice, &l.BasePrice, &discount, &discountReason, &l.TaxCode,
			&l.TaxRateCode, &l.TaxRate, &l.TaxAmount, &l.Subtotal, &l.LineTotal,
			&exJSON, &pharmaForm, &serialNumber,
		)
		if err != nil {
			return fmt.Errorf("scan document line: %w", err)
		}
		if discount != nil {
			l.Discount = *discount
		}
		l.DiscountReason = derefStr(discountReason)
		l.PharmaForm = derefStr(pharmaForm)
		l.SerialNumber = derefStr(serialNumber)
		if len(exJSON) > 0 {
			var ex entity.Exemption
			if err := json.Unmarshal(exJSON, &ex); err != nil {
				return fmt.Errorf("unmarshal exemption: %w", err)
			}
			l.Exemption = &ex
		}
		d.Lines = append(d.Lines, l)
	}
	return rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
