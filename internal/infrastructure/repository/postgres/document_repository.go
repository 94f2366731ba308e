package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/expensedocs/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026081201)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL,
	filename TEXT NOT NULL,
	storage_key TEXT NOT NULL,
	doc_type TEXT NOT NULL,
	status TEXT NOT NULL,
	fields JSONB NOT NULL DEFAULT '{}'::jsonb,
	vendor_id TEXT,
	notes TEXT,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_org ON documents(organization_id);
CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);

CREATE TABLE IF NOT EXISTS vendors (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL,
	name TEXT NOT NULL,
	phone TEXT,
	email TEXT,
	address TEXT,
	notes TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_vendors_org ON vendors(organization_id);

CREATE TABLE IF NOT EXISTS categories (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL,
	name TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_categories_org ON categories(organization_id);

CREATE TABLE IF NOT EXISTS document_line_items (
	id BIGSERIAL PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id),
	description TEXT NOT NULL,
	category_id TEXT,
	category_name TEXT NOT NULL,
	quantity DOUBLE PRECISION NOT NULL DEFAULT 1,
	unit_price DOUBLE PRECISION NOT NULL DEFAULT 0,
	amount DOUBLE PRECISION NOT NULL DEFAULT 0,
	confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	tax_deductible BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE INDEX IF NOT EXISTS idx_line_items_document ON document_line_items(document_id);

CREATE TABLE IF NOT EXISTS processing_history (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	status TEXT NOT NULL,
	error_message TEXT,
	elapsed_ms BIGINT NOT NULL,
	result JSONB,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_document ON processing_history(document_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	fieldsJSON, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, organization_id, filename, storage_key, doc_type, status, fields, vendor_id, notes, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`,
		doc.ID, doc.OrganizationID, doc.Filename, doc.StorageKey, string(doc.Type), string(doc.Status),
		fieldsJSON, doc.VendorID, doc.Notes, doc.Error, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, organization_id, filename, storage_key, doc_type, status, fields, vendor_id, notes, error_message, created_at, updated_at
FROM documents
WHERE id = $1
`, id)

	var doc domain.Document
	var fieldsRaw []byte
	var docType, status string
	var notes, errMessage sql.NullString

	err := row.Scan(
		&doc.ID, &doc.OrganizationID, &doc.Filename, &doc.StorageKey, &docType, &status,
		&fieldsRaw, &doc.VendorID, &notes, &errMessage, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	if err := json.Unmarshal(fieldsRaw, &doc.Fields); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	doc.Type = domain.DocumentType(docType)
	doc.Status = domain.DocumentStatus(status)
	doc.Notes = notes.String
	doc.Error = errMessage.String
	return &doc, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update status rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "update document status", fmt.Errorf("id=%s", id))
	}
	return nil
}

func (r *DocumentRepository) SaveExtraction(ctx context.Context, id string, fields domain.ExtractedFields, vendorID *string) error {
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET fields = $2, vendor_id = $3, updated_at = $4
WHERE id = $1
`, id, fieldsJSON, vendorID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save extraction: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save extraction rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "save extraction", fmt.Errorf("id=%s", id))
	}
	return nil
}

func (r *DocumentRepository) ReplaceLineItems(ctx context.Context, id string, items []domain.CategoryAssignment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin line items tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_line_items WHERE document_id = $1`, id); err != nil {
		return fmt.Errorf("delete line items: %w", err)
	}

	for _, item := range items {
		_, err := tx.ExecContext(ctx, `
INSERT INTO document_line_items (document_id, description, category_id, category_name, quantity, unit_price, amount, confidence, tax_deductible)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`, id, item.Description, item.CategoryID, item.CategoryName, item.Quantity, item.UnitPrice, item.Amount, item.Confidence, item.TaxDeductible)
		if err != nil {
			return fmt.Errorf("insert line item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit line items tx: %w", err)
	}
	return nil
}
