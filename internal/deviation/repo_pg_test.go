package deviation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var recordCols = []string{"id", "company_id", "project_id", "product_model", "requirement_id", "seq", "parameter_name", "tender_value", "our_value", "classification", "remark", "remark_edited", "error_code", "computed_at"}

func TestPGRepoReplaceSoftDeletesPreviousTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	rec := Record{
		ID: "d1", CompanyID: "c1", ProjectID: "p1", ProductModel: "CT-X1", RequirementID: "r1", Seq: 1,
		ParameterName: "扫描速度", TenderValue: "≥100mm/s", OurValue: "5kg",
		Classification: Negative, Remark: "单位不一致：kg 与 mm/s", ErrorCode: CodeComputation, ComputedAt: now,
	}
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE deviation_records SET deleted_at = now\\(\\)").
		WithArgs("c1", "p1", "CT-X1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO deviation_records").
		WithArgs("d1", "c1", "p1", "CT-X1", "r1", 1, "扫描速度", "≥100mm/s", "5kg", Negative, rec.Remark, false, CodeComputation, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := &PGRepo{DB: db}
	if err := repo.Replace(context.Background(), "c1", "p1", "CT-X1", []Record{rec}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoReplaceRollsBackOnInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE deviation_records").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO deviation_records").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	repo := &PGRepo{DB: db}
	err = repo.Replace(context.Background(), "c1", "p1", "CT-X1", []Record{{ID: "d1", ParameterName: "扫描速度"}})
	if err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateRemark(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("UPDATE deviation_records SET remark = \\$3, remark_edited = TRUE").
		WithArgs("c1", "d1", "已确认").
		WillReturnRows(sqlmock.NewRows(recordCols).
			AddRow("d1", "c1", "p1", "CT-X1", "r1", 1, "扫描速度", "≥100mm/s", "120mm/s", Positive, "已确认", true, nil, now))
	mock.ExpectQuery("UPDATE deviation_records").
		WithArgs("c1", "missing", "x").
		WillReturnRows(sqlmock.NewRows(recordCols))

	repo := &PGRepo{DB: db}
	rec, err := repo.UpdateRemark(context.Background(), "c1", "d1", "已确认")
	if err != nil {
		t.Fatalf("UpdateRemark: %v", err)
	}
	if !rec.RemarkEdited || rec.Remark != "已确认" || rec.ErrorCode != "" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if _, err := repo.UpdateRemark(context.Background(), "c1", "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
