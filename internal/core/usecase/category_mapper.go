package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/expensedocs/internal/core/domain"
	"github.com/kirillkom/expensedocs/internal/core/ports"
)

// CategoryMapper translates classification output into the organization's
// persisted category identifiers. A suggested name with no persisted
// counterpart yields an assignment with a nil category reference; flagging
// those is the display layer's job.
type CategoryMapper struct {
	categories ports.CategoryRepository
}

func NewCategoryMapper(categories ports.CategoryRepository) *CategoryMapper {
	return &CategoryMapper{categories: categories}
}

func (m *CategoryMapper) Assign(ctx context.Context, orgID string, fields domain.ExtractedFields, cls domain.Classification) ([]domain.CategoryAssignment, error) {
	persisted, err := m.categories.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list categories for assignment: %w", err)
	}

	byName := make(map[string]string, len(persisted))
	for _, cat := range persisted {
		byName[strings.ToLower(cat.Name)] = cat.ID
	}

	lines := cls.LineItems
	if len(lines) == 0 {
		// No per-line judgment: assign the whole document under the
		// overall category.
		lines = []domain.LineClassification{{
			Description:   fields.VendorName,
			Category:      cls.Category,
			Confidence:    cls.Confidence,
			TaxDeductible: cls.TaxDeductible,
		}}
	}

	out := make([]domain.CategoryAssignment, 0, len(lines))
	for i, line := range lines {
		assignment := domain.CategoryAssignment{
			Description:   line.Description,
			CategoryName:  line.Category,
			Quantity:      1,
			Confidence:    line.Confidence,
			TaxDeductible: line.TaxDeductible,
		}
		if id, ok := byName[strings.ToLower(line.Category)]; ok {
			categoryID := id
			assignment.CategoryID = &categoryID
		}

		if i < len(fields.LineItems) {
			source := fields.LineItems[i]
			if source.Quantity > 0 {
				assignment.Quantity = source.Quantity
			}
			assignment.UnitPrice = source.UnitPrice
			assignment.Amount = source.Amount
			if assignment.Description == "" {
				assignment.Description = source.Description
			}
		} else if len(cls.LineItems) == 0 {
			assignment.Amount = fields.TotalAmount
		}

		out = append(out, assignment)
	}
	return out, nil
}
