package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/expensedocs/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveExtraction(ctx context.Context, id string, fields domain.ExtractedFields, vendorID *string) error
	ReplaceLineItems(ctx context.Context, id string, items []domain.CategoryAssignment) error
}

// VendorRepository reads and creates an organization's vendor records.
type VendorRepository interface {
	ListByOrganization(ctx context.Context, orgID string) ([]domain.Vendor, error)
	Create(ctx context.Context, vendor *domain.Vendor) error
}

// CategoryRepository reads an organization's persisted expense categories.
type CategoryRepository interface {
	ListByOrganization(ctx context.Context, orgID string) ([]domain.Category, error)
}

// HistoryRepository appends processing audit records.
type HistoryRepository interface {
	Append(ctx context.Context, record *domain.ProcessingRecord) error
}

// ObjectStorage stores and serves source document blobs.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Download(ctx context.Context, key string) ([]byte, error)
}

// RecognitionService extracts structured fields from a scanned document.
type RecognitionService interface {
	Analyze(ctx context.Context, blob []byte, docType domain.DocumentType) (domain.ExtractedFields, error)
}

// ReasoningService returns a category judgment for extracted fields. Callers
// must treat any error as recoverable via the local fallback rule.
type ReasoningService interface {
	Classify(ctx context.Context, req ClassificationRequest) (domain.Classification, error)
}

// ClassificationRequest is the structured prompt input for the reasoning
// service.
type ClassificationRequest struct {
	VendorName  string
	TotalAmount float64
	Date        *time.Time
	LineItems   []domain.LineItem
	Categories  []string
}

// MessageQueue publishes/consumes document processing events.
type MessageQueue interface {
	PublishDocumentQueued(ctx context.Context, documentID string) error
	SubscribeDocumentQueued(ctx context.Context, handler func(context.Context, string) error) error
}

// WebhookNotifier announces a finished pipeline run downstream. Best effort:
// implementations log failures and never return them to the pipeline.
type WebhookNotifier interface {
	Notify(ctx context.Context, documentID, orgID string)
}

// ResultCache is the shared TTL cache consulted by the orchestrator.
type ResultCache interface {
	Set(key string, value any, ttl time.Duration)
	Get(key string) (any, bool)
	Delete(key string)
	Clear()
}
