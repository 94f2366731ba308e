package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kirillkom/expensedocs/internal/core/domain"
)

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Append(ctx context.Context, record *domain.ProcessingRecord) error {
	var result any
	if len(record.Result) > 0 {
		result = record.Result
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO processing_history (id, document_id, status, error_message, elapsed_ms, result, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`, record.ID, record.DocumentID, string(record.Status), record.Error, record.ElapsedMS, result, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert processing record: %w", err)
	}
	return nil
}
