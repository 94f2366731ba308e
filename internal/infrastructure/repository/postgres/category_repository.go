package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kirillkom/expensedocs/internal/core/domain"
)

type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) ListByOrganization(ctx context.Context, orgID string) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, organization_id, name
FROM categories
WHERE organization_id = $1
ORDER BY name
`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Category, 0)
	for rows.Next() {
		var cat domain.Category
		if err := rows.Scan(&cat.ID, &cat.OrganizationID, &cat.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}
