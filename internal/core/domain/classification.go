package domain

type ExpenseType string

const (
	ExpenseDirect         ExpenseType = "direct"
	ExpenseIndirect       ExpenseType = "indirect"
	ExpenseAdministrative ExpenseType = "administrative"
)

// Classification is the judgment returned by the reasoning service (or by
// the deterministic fallback when the service is unavailable).
type Classification struct {
	Category         string               `json:"category"`
	Confidence       float64              `json:"confidence"`
	TaxDeductible    bool                 `json:"tax_deductible"`
	ProjectTags      []string             `json:"project_tags,omitempty"`
	VendorType       string               `json:"vendor_type,omitempty"`
	LineItems        []LineClassification `json:"line_items,omitempty"`
	EstimatedSavings float64              `json:"estimated_savings"`
	ExpenseType      ExpenseType          `json:"expense_type"`
	Fallback         bool                 `json:"fallback,omitempty"`
}

type LineClassification struct {
	Description   string  `json:"description"`
	Category      string  `json:"category"`
	Confidence    float64 `json:"confidence"`
	TaxDeductible bool    `json:"tax_deductible"`
}

// Category is an organization's persisted expense category.
type Category struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
}

// CategoryAssignment binds one line item to a persisted category.
// CategoryID is nil when the suggested name has no persisted counterpart;
// display layers are responsible for flagging those.
type CategoryAssignment struct {
	Description   string  `json:"description"`
	CategoryID    *string `json:"category_id,omitempty"`
	CategoryName  string  `json:"category_name"`
	Quantity      float64 `json:"quantity"`
	UnitPrice     float64 `json:"unit_price"`
	Amount        float64 `json:"amount"`
	Confidence    float64 `json:"confidence"`
	TaxDeductible bool    `json:"tax_deductible"`
}
