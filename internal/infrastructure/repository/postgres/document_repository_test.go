package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/expensedocs/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DocumentRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, organization_id, filename").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateStatusReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("missing", string(domain.StatusProcessing), "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", domain.StatusProcessing, "")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveExtractionUpdatesFieldsAndVendor(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	vendorID := "vendor-1"
	mock.ExpectExec("UPDATE documents").
		WithArgs("doc-1", sqlmock.AnyArg(), &vendorID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveExtraction(context.Background(), "doc-1", domain.ExtractedFields{
		VendorName:  "BuildSupply Inc.",
		TotalAmount: 1250.40,
	}, &vendorID)
	if err != nil {
		t.Fatalf("SaveExtraction() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReplaceLineItemsDeletesThenInserts(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	categoryID := "cat-1"
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM document_line_items").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO document_line_items").
		WithArgs("doc-1", "2x4 lumber", &categoryID, "Materials", 10.0, 4.5, 45.0, 0.92, true).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.ReplaceLineItems(context.Background(), "doc-1", []domain.CategoryAssignment{{
		Description:   "2x4 lumber",
		CategoryID:    &categoryID,
		CategoryName:  "Materials",
		Quantity:      10,
		UnitPrice:     4.5,
		Amount:        45,
		Confidence:    0.92,
		TaxDeductible: true,
	}})
	if err != nil {
		t.Fatalf("ReplaceLineItems() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
