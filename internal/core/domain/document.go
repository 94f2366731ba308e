package domain

import "time"

type DocumentStatus string

const (
	StatusPending    DocumentStatus = "pending"
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

// Terminal reports whether no further status transition is allowed.
func (s DocumentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type DocumentType string

const (
	TypeInvoice   DocumentType = "invoice"
	TypeReceipt   DocumentType = "receipt"
	TypeBill      DocumentType = "bill"
	TypeStatement DocumentType = "statement"
	TypeOther     DocumentType = "other"
)

type Document struct {
	ID             string          `json:"id"`
	OrganizationID string          `json:"organization_id"`
	Filename       string          `json:"filename"`
	StorageKey     string          `json:"storage_key"`
	Type           DocumentType    `json:"type"`
	Status         DocumentStatus  `json:"status"`
	Fields         ExtractedFields `json:"fields"`
	VendorID       *string         `json:"vendor_id,omitempty"`
	LineItems      []LineItem      `json:"line_items,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	Error          string          `json:"error,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ExtractedFields is what the recognition service returns for one document.
// Confidence keys match the field names ("vendor_name", "total_amount", ...).
type ExtractedFields struct {
	VendorName     string             `json:"vendor_name"`
	VendorPhone    string             `json:"vendor_phone,omitempty"`
	VendorEmail    string             `json:"vendor_email,omitempty"`
	VendorAddress  string             `json:"vendor_address,omitempty"`
	DocumentDate   *time.Time         `json:"document_date,omitempty"`
	DueDate        *time.Time         `json:"due_date,omitempty"`
	DocumentNumber string             `json:"document_number,omitempty"`
	TotalAmount    float64            `json:"total_amount"`
	TaxAmount      float64            `json:"tax_amount"`
	Currency       string             `json:"currency,omitempty"`
	Confidence     map[string]float64 `json:"confidence,omitempty"`
	LineItems      []LineItem         `json:"line_items,omitempty"`
}

type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Amount      float64 `json:"amount"`
}
