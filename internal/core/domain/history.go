package domain

import "time"

// ProcessingRecord is the audit row appended after every pipeline run,
// successful or not.
type ProcessingRecord struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"document_id"`
	Status     DocumentStatus `json:"status"`
	Error      string         `json:"error,omitempty"`
	ElapsedMS  int64          `json:"elapsed_ms"`
	// Result holds the serialized PipelineResult for completed runs.
	Result    []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// PipelineResult is what one orchestrator run produces.
type PipelineResult struct {
	DocumentID     string               `json:"document_id"`
	VendorMatch    VendorMatch          `json:"vendor_match"`
	Classification Classification       `json:"classification"`
	Assignments    []CategoryAssignment `json:"category_assignments"`
	Elapsed        time.Duration        `json:"elapsed"`
}
