package specs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestPGRepoUpsertManyCountsInserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	entries := []Entry{
		{ID: "s1", CompanyID: "c1", ProductModel: "CT-Scan-X1", ParameterName: "扫描速度", ParameterValue: "120mm/s", CreatedAt: now, UpdatedAt: now},
		{ID: "s2", CompanyID: "c1", ProductModel: "CT-Scan-X1", ParameterName: "探测器排数", ParameterValue: "128排", CreatedAt: now, UpdatedAt: now},
	}
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO product_specs (.+) ON CONFLICT").
		WithArgs("s1", "c1", "", "", "CT-Scan-X1", "扫描速度", "120mm/s", false, now, now).
		WillReturnRows(sqlmock.NewRows([]string{"inserted"}).AddRow(false))
	mock.ExpectQuery("INSERT INTO product_specs (.+) ON CONFLICT").
		WithArgs("s2", "c1", "", "", "CT-Scan-X1", "探测器排数", "128排", false, now, now).
		WillReturnRows(sqlmock.NewRows([]string{"inserted"}).AddRow(true))
	mock.ExpectCommit()

	repo := &PGRepo{DB: db}
	created, err := repo.UpsertMany(context.Background(), entries)
	if err != nil {
		t.Fatalf("UpsertMany: %v", err)
	}
	if created != 1 {
		t.Fatalf("expected 1 created, got %d", created)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCreateMapsUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("INSERT INTO product_specs").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	repo := &PGRepo{DB: db}
	err = repo.Create(context.Background(), Entry{ID: "s1", CompanyID: "c1", ProductModel: "m", ParameterName: "p"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestPGRepoListBuildsFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM product_specs WHERE company_id = \\$1 AND deleted_at IS NULL AND product_model = \\$2 (.+) LIMIT \\$3 OFFSET \\$4").
		WithArgs("c1", "CT-Scan-X1", 50, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "company_id", "category", "sub_category", "product_model", "parameter_name", "parameter_value", "is_core_param", "created_at", "updated_at"}).
			AddRow("s1", "c1", "影像设备", "CT", "CT-Scan-X1", "扫描速度", "120mm/s", true, now, now))

	repo := &PGRepo{DB: db}
	items, err := repo.List(context.Background(), "c1", ListFilter{ProductModel: "CT-Scan-X1", Limit: 50})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || !items[0].IsCoreParam {
		t.Fatalf("unexpected items %+v", items)
	}
}
