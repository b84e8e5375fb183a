package knowledge

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreateEncodesJSON(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO knowledge_chunks").
		WithArgs("k1", "c1", "售后", "4小时到场", "售后", `["服务"]`, `{}`, "u1", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := &PGRepo{DB: db}
	err = repo.Create(context.Background(), Chunk{
		ID: "k1", CompanyID: "c1", Title: "售后", Content: "4小时到场", Category: "售后",
		Tags: []string{"服务"}, CreatedBy: "u1", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListByTag(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	cols := []string{"id", "company_id", "title", "content", "category", "tags", "metadata", "created_by", "created_at", "updated_at"}
	rows := sqlmock.NewRows(cols).
		AddRow("k1", "c1", "培训方案", "操作培训", "售后", []byte(`["培训"]`), []byte(`{"source":"模板"}`), nil, now, now)
	mock.ExpectQuery("SELECT (.+) FROM knowledge_chunks WHERE (.+)tags @> \\$2::jsonb").
		WithArgs("c1", `["培训"]`, 10, 0).
		WillReturnRows(rows)

	repo := &PGRepo{DB: db}
	list, err := repo.List(context.Background(), "c1", ListFilter{Tag: "培训", Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Tags[0] != "培训" || list[0].Metadata["source"] != "模板" || list[0].CreatedBy != "" {
		t.Fatalf("unexpected list %+v", list)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoSoftDeleteMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("UPDATE knowledge_chunks SET deleted_at").
		WithArgs("c1", "k404").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &PGRepo{DB: db}
	if err := repo.SoftDelete(context.Background(), "c1", "k404"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
