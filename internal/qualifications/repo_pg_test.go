package qualifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var qualCols = []string{"id", "company_id", "name", "product_model", "license_number", "issuer", "issue_date", "expiry_date", "created_at", "updated_at"}

func TestPGRepoListScansDates(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM qualifications WHERE company_id = \\$1 AND deleted_at IS NULL AND product_model = \\$2 ORDER BY expiry_date").
		WithArgs("c1", "CT-X1").
		WillReturnRows(sqlmock.NewRows(qualCols).
			AddRow("q1", "c1", "CT注册证", "CT-X1", "ZC-01", "国家药监局", nil, time.Date(2027, 3, 15, 0, 0, 0, 0, time.UTC), now, now))

	repo := &PGRepo{DB: db}
	items, err := repo.List(context.Background(), "c1", ListFilter{ProductModel: "CT-X1"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || !items[0].IssueDate.IsZero() || items[0].ExpiryDate != NewDate(2027, 3, 15) {
		t.Fatalf("unexpected items %+v", items)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoSoftDeleteNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("UPDATE qualifications SET deleted_at = now\\(\\)").
		WithArgs("c1", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &PGRepo{DB: db}
	if err := repo.SoftDelete(context.Background(), "c1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
