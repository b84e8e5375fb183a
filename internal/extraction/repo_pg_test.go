package extraction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var taskColumnNames = []string{"id", "company_id", "project_id", "document_id", "status", "progress", "extractor_version", "error_code", "error_message", "requirement_count", "created_by", "created_at", "started_at", "completed_at"}

func TestPGRepoCreateOrReuseReturnsActiveTask(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO extraction_tasks (.+) ON CONFLICT").
		WithArgs("t2", "c1", "p1", "d1", StatusPending, 0, "rules:v1", "u2", now).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM extraction_tasks WHERE company_id = \\$1 AND project_id = \\$2 AND document_id = \\$3").
		WithArgs("c1", "p1", "d1").
		WillReturnRows(sqlmock.NewRows(taskColumnNames).
			AddRow("t1", "c1", "p1", "d1", StatusProcessing, 40, "rules:v1", nil, nil, 0, "u1", now, now, nil))

	repo := &PGRepo{DB: db}
	got, created, err := repo.CreateOrReuse(context.Background(), Task{
		ID: "t2", CompanyID: "c1", ProjectID: "p1", DocumentID: "d1",
		Status: StatusPending, ExtractorVersion: "rules:v1", CreatedBy: "u2", CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateOrReuse: %v", err)
	}
	if created || got.ID != "t1" || got.Progress != 40 || got.StartedAt == nil || got.CompletedAt != nil {
		t.Fatalf("unexpected task %+v created=%v", got, created)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoTransitionIsConditional(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	done := time.Date(2026, 3, 1, 8, 5, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE extraction_tasks SET status = \\$2(.+)WHERE id = \\$1 AND status IN \\(\\$9, \\$10\\)").
		WithArgs("t1", StatusFailed, 0, CodeTimeout, "deadline", 0, nil, done, StatusPending, StatusProcessing).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &PGRepo{DB: db}
	ok, err := repo.Transition(context.Background(), "t1", []string{StatusPending, StatusProcessing}, StatusUpdate{
		Status:       StatusFailed,
		ErrorCode:    CodeTimeout,
		ErrorMessage: "deadline",
		CompletedAt:  &done,
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if ok {
		t.Fatal("expected no transition when the task already left the source states")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoTransitionTxUsesTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	done := time.Date(2026, 3, 1, 8, 5, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE extraction_tasks SET status = \\$2(.+)WHERE id = \\$1 AND status IN \\(\\$9\\)").
		WithArgs("t1", StatusCompleted, 100, nil, nil, 3, nil, done, StatusProcessing).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := &PGRepo{DB: db}
	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	ok, err := repo.TransitionTx(context.Background(), tx, "t1", []string{StatusProcessing}, StatusUpdate{
		Status:           StatusCompleted,
		Progress:         100,
		RequirementCount: 3,
		CompletedAt:      &done,
	})
	if err != nil || !ok {
		t.Fatalf("TransitionTx: ok=%v err=%v", ok, err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
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

	mock.ExpectQuery("SELECT (.+) FROM extraction_tasks").
		WithArgs("c1", "t1").
		WillReturnRows(sqlmock.NewRows(taskColumnNames))

	repo := &PGRepo{DB: db}
	if _, err := repo.GetByID(context.Background(), "c1", "t1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
