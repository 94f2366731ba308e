package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/expensedocs/internal/core/domain"
)

func TestListByOrganizationScansVendors(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()
	repo := &VendorRepository{db: db}

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "organization_id", "name", "phone", "email", "address", "notes", "created_at", "updated_at",
	}).AddRow("v-1", "org-1", "BuildSupply Inc.", "555-0100", nil, nil, nil, now, now)

	mock.ExpectQuery("SELECT id, organization_id, name").
		WithArgs("org-1").
		WillReturnRows(rows)

	vendors, err := repo.ListByOrganization(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("ListByOrganization() error = %v", err)
	}
	if len(vendors) != 1 {
		t.Fatalf("expected 1 vendor, got %d", len(vendors))
	}
	if vendors[0].Name != "BuildSupply Inc." || vendors[0].Phone != "555-0100" {
		t.Fatalf("unexpected vendor: %+v", vendors[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateInsertsVendorRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()
	repo := &VendorRepository{db: db}

	now := time.Now().UTC()
	mock.ExpectExec("INSERT INTO vendors").
		WithArgs("v-1", "org-1", "BuildSupply Inc.", "", "", "", "created by pipeline from document extraction (confidence 0.90)", now, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Create(context.Background(), &domain.Vendor{
		ID:             "v-1",
		OrganizationID: "org-1",
		Name:           "BuildSupply Inc.",
		Notes:          "created by pipeline from document extraction (confidence 0.90)",
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
