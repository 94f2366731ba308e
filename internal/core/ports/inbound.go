package ports

import (
	"context"
	"io"

	"github.com/kirillkom/expensedocs/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload.
type DocumentIngestor interface {
	Upload(ctx context.Context, orgID, filename string, docType domain.DocumentType, body io.Reader) (*domain.Document, error)
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// DocumentProcessor drives one document through the full pipeline.
type DocumentProcessor interface {
	Process(ctx context.Context, documentID string) (*domain.PipelineResult, error)
}

// BatchCoordinator fans pipeline runs out over a document list.
type BatchCoordinator interface {
	Submit(ctx context.Context, orgID string, documentIDs []string) (string, error)
	Status(jobID string) (*domain.BatchJob, error)
}
