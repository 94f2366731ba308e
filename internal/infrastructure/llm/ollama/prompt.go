package ollama

import (
	"fmt"
	"strings"

	"github.com/kirillkom/expensedocs/internal/core/ports"
)

func buildClassificationPrompt(req ports.ClassificationRequest) string {
	var lines strings.Builder
	for _, item := range req.LineItems {
		fmt.Fprintf(&lines, "- %s (qty %.2f, unit %.2f, amount %.2f)\n",
			item.Description, item.Quantity, item.UnitPrice, item.Amount)
	}
	if lines.Len() == 0 {
		lines.WriteString("- none\n")
	}

	date := "unknown"
	if req.Date != nil {
		date = req.Date.Format("2006-01-02")
	}

	taxonomy := "none defined"
	if len(req.Categories) > 0 {
		taxonomy = strings.Join(req.Categories, ", ")
	}

	return fmt.Sprintf(`You are an expense classifier for business documents.
Return a strict JSON object with keys:
category (string), confidence (number from 0 to 1), tax_deductible (boolean),
project_tags (array of strings), vendor_type (string),
estimated_savings (number, estimated tax savings in dollars),
expense_type (one of: direct, indirect, administrative),
line_items (array of objects with keys: description, category, confidence, tax_deductible).
No markdown, no extra keys.
Prefer categories from the organization's taxonomy when one fits.

Vendor: %s
Total amount: %.2f
Date: %s
Organization categories: %s
Line items:
%s`, req.VendorName, req.TotalAmount, date, taxonomy, lines.String())
}
