package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/kirillkom/expensedocs/internal/core/domain"
	"github.com/kirillkom/expensedocs/internal/core/ports"
)

const (
	fallbackCategory   = "Office Expenses"
	fallbackConfidence = 0.6
	fallbackSavingRate = 0.25
	keywordAgreeBoost  = 0.1
)

// keywordRule maps vendor-name keywords to an expense category. First rule
// with a matching keyword wins.
type keywordRule struct {
	keywords []string
	category string
}

var keywordRules = []keywordRule{
	{[]string{"home depot", "lowe", "menards", "lumber", "buildsupply", "build supply"}, "Materials"},
	{[]string{"shell", "chevron", "exxon", "fuel", "gas station"}, "Fuel"},
	{[]string{"united rentals", "sunbelt", "rental", "rent-all"}, "Equipment Rental"},
	{[]string{"fedex", "ups ", "usps", "freight", "shipping"}, "Shipping & Postage"},
	{[]string{"verizon", "at&t", "comcast", "utility", "electric", "water dept"}, "Utilities"},
	{[]string{"insurance", "assurance"}, "Insurance"},
	{[]string{"staples", "office depot", "office"}, "Office Expenses"},
}

// Classifier asks the reasoning service for a category judgment and covers
// every failure mode with a deterministic rule. Classify never fails.
type Classifier struct {
	reasoning  ports.ReasoningService
	categories ports.CategoryRepository
}

func NewClassifier(reasoning ports.ReasoningService, categories ports.CategoryRepository) *Classifier {
	return &Classifier{reasoning: reasoning, categories: categories}
}

func (c *Classifier) Classify(ctx context.Context, orgID string, fields domain.ExtractedFields) domain.Classification {
	taxonomy := c.loadTaxonomy(ctx, orgID)

	result, err := c.reasoning.Classify(ctx, ports.ClassificationRequest{
		VendorName:  fields.VendorName,
		TotalAmount: fields.TotalAmount,
		Date:        fields.DocumentDate,
		LineItems:   fields.LineItems,
		Categories:  taxonomy,
	})
	if err != nil {
		slog.Warn("classification_fallback",
			"organization_id", orgID,
			"vendor_name", fields.VendorName,
			"error", err,
		)
		return fallbackClassification(fields)
	}
	if err := validateClassification(result); err != nil {
		slog.Warn("classification_fallback",
			"organization_id", orgID,
			"vendor_name", fields.VendorName,
			"error", err,
		)
		return fallbackClassification(fields)
	}

	// An independent keyword hit that agrees with the service is a strong
	// signal; boost the confidence.
	if keyword, ok := keywordCategory(fields.VendorName); ok && strings.EqualFold(keyword, result.Category) {
		result.Confidence += keywordAgreeBoost
		if result.Confidence > 1.0 {
			result.Confidence = 1.0
		}
	}
	return result
}

func (c *Classifier) loadTaxonomy(ctx context.Context, orgID string) []string {
	categories, err := c.categories.ListByOrganization(ctx, orgID)
	if err != nil {
		slog.Warn("taxonomy_load_failed", "organization_id", orgID, "error", err)
		return nil
	}
	names := make([]string, 0, len(categories))
	for _, cat := range categories {
		names = append(names, cat.Name)
	}
	return names
}

func validateClassification(cls domain.Classification) error {
	if strings.TrimSpace(cls.Category) == "" {
		return domain.WrapError(domain.ErrClassificationFailed, "validate classification", domain.ErrInvalidInput)
	}
	if cls.Confidence < 0 || cls.Confidence > 1 {
		return domain.WrapError(domain.ErrClassificationFailed, "validate classification", domain.ErrInvalidInput)
	}
	for _, line := range cls.LineItems {
		if line.Confidence < 0 || line.Confidence > 1 {
			return domain.WrapError(domain.ErrClassificationFailed, "validate classification", domain.ErrInvalidInput)
		}
	}
	return nil
}

func fallbackClassification(fields domain.ExtractedFields) domain.Classification {
	category := fallbackCategory
	if keyword, ok := keywordCategory(fields.VendorName); ok {
		category = keyword
	}

	lines := make([]domain.LineClassification, 0, len(fields.LineItems))
	for _, item := range fields.LineItems {
		lines = append(lines, domain.LineClassification{
			Description:   item.Description,
			Category:      category,
			Confidence:    fallbackConfidence,
			TaxDeductible: true,
		})
	}

	return domain.Classification{
		Category:         category,
		Confidence:       fallbackConfidence,
		TaxDeductible:    true,
		LineItems:        lines,
		EstimatedSavings: fields.TotalAmount * fallbackSavingRate,
		ExpenseType:      domain.ExpenseIndirect,
		Fallback:         true,
	}
}

func keywordCategory(vendorName string) (string, bool) {
	name := strings.ToLower(vendorName)
	if name == "" {
		return "", false
	}
	for _, rule := range keywordRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(name, keyword) {
				return rule.category, true
			}
		}
	}
	return "", false
}
