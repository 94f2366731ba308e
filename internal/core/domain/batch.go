package domain

import "time"

type BatchStatus string

const (
	BatchPending    BatchStatus = "pending"
	BatchProcessing BatchStatus = "processing"
	BatchCompleted  BatchStatus = "completed"
	BatchFailed     BatchStatus = "failed"
)

// BatchJob tracks the fan-out of pipeline runs over a document list.
// Processed counts successful documents; Progress counts settled ones, so a
// partially failed job still reports 100 at completion.
type BatchJob struct {
	ID             string      `json:"id"`
	OrganizationID string      `json:"organization_id"`
	DocumentIDs    []string    `json:"document_ids"`
	Status         BatchStatus `json:"status"`
	Progress       float64     `json:"progress"`
	Processed      int         `json:"processed_documents"`
	Failed         int         `json:"failed_documents"`
	ErrorSummary   string      `json:"error_summary,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	CompletedAt    *time.Time  `json:"completed_at,omitempty"`
}
