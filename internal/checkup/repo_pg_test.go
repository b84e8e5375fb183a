package checkup

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var recordCols = []string{"id", "company_id", "project_id", "document_id", "file_name", "product_model", "state", "status",
	"total", "passed", "warnings", "errors", "progress", "results", "previous_id", "created_by", "created_at", "completed_at"}

func recordRow(id string, created time.Time, completed any) []driver.Value {
	return []driver.Value{
		id, "c1", "p1", "doc-1", "投标文件.docx", "CT-X1", StateCompleted, OverallWarning,
		2, 1, 1, 0, 50,
		[]byte(`[{"category":"格式检查","checkItem":"页码连续性","status":"passed","description":"页码连续，无缺失","suggestion":""},{"category":"格式检查","checkItem":"目录与内容一致性","status":"warning","description":"未检测到目录","suggestion":"请为投标文件编制目录"}]`),
		nil, "u1", created, completed,
	}
}

func TestPGRepoGetByIDDecodesResults(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	created := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM checkup_records").
		WithArgs("c1", "k1").
		WillReturnRows(sqlmock.NewRows(recordCols).AddRow(recordRow("k1", created, created.Add(time.Second))...))

	repo := &PGRepo{DB: db}
	rec, err := repo.GetByID(context.Background(), "c1", "k1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(rec.Results) != 2 || rec.Results[1].Status != StatusWarning || rec.PreviousID != "" || rec.CompletedAt == nil {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.Totals != (Totals{Total: 2, Passed: 1, Warnings: 1}) {
		t.Fatalf("unexpected totals %+v", rec.Totals)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT (.+) FROM checkup_records").WillReturnRows(sqlmock.NewRows(recordCols))
	repo := &PGRepo{DB: db}
	if _, err := repo.GetByID(context.Background(), "c1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoUpdateRefusesCompletedRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	created := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE checkup_records").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM checkup_records").
		WithArgs("c1", "k1").
		WillReturnRows(sqlmock.NewRows(recordCols).AddRow(recordRow("k1", created, created)...))

	repo := &PGRepo{DB: db}
	err = repo.Update(context.Background(), Record{ID: "k1", CompanyID: "c1", State: StateCompleted})
	if !errors.Is(err, ErrCompleted) {
		t.Fatalf("expected ErrCompleted, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListByProjectPages(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	created := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\)").
		WithArgs("c1", "p1", "").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("ORDER BY created_at DESC, id DESC").
		WithArgs("c1", "p1", "", 2, 1).
		WillReturnRows(sqlmock.NewRows(recordCols).
			AddRow(recordRow("k2", created.Add(time.Hour), nil)...).
			AddRow(recordRow("k1", created, nil)...))

	repo := &PGRepo{DB: db}
	recs, total, err := repo.ListByProject(context.Background(), "c1", "p1", ListFilter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("ListByProject: %v", err)
	}
	if total != 3 || len(recs) != 2 || recs[0].ID != "k2" || recs[0].CompletedAt != nil {
		t.Fatalf("unexpected page total=%d %+v", total, recs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCountByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	since := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("GROUP BY status").
		WithArgs("c1", since).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow(OverallSuccess, 4).
			AddRow(OverallError, 1))

	repo := &PGRepo{DB: db}
	counts, err := repo.CountByStatus(context.Background(), "c1", since)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts[OverallSuccess] != 4 || counts[OverallError] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}
