package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kirillkom/expensedocs/internal/core/domain"
)

type VendorRepository struct {
	db *sql.DB
}

func NewVendorRepository(db *sql.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

func (r *VendorRepository) ListByOrganization(ctx context.Context, orgID string) ([]domain.Vendor, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, organization_id, name, phone, email, address, notes, created_at, updated_at
FROM vendors
WHERE organization_id = $1
ORDER BY created_at
`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Vendor, 0)
	for rows.Next() {
		var vendor domain.Vendor
		var phone, email, address, notes sql.NullString
		err := rows.Scan(
			&vendor.ID,
			&vendor.OrganizationID,
			&vendor.Name,
			&phone,
			&email,
			&address,
			&notes,
			&vendor.CreatedAt,
			&vendor.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan vendor: %w", err)
		}
		vendor.Phone = phone.String
		vendor.Email = email.String
		vendor.Address = address.String
		vendor.Notes = notes.String
		out = append(out, vendor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vendors: %w", err)
	}
	return out, nil
}

func (r *VendorRepository) Create(ctx context.Context, vendor *domain.Vendor) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO vendors (id, organization_id, name, phone, email, address, notes, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`, vendor.ID, vendor.OrganizationID, vendor.Name, vendor.Phone, vendor.Email, vendor.Address, vendor.Notes, vendor.CreatedAt, vendor.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert vendor: %w", err)
	}
	return nil
}
