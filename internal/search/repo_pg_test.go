package search

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func hitRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "document_id", "filename", "chunk_index", "content", "similarity"}).
		AddRow(int64(11), "doc-1", "a.pdf", 0, "closest", 0.93).
		AddRow(int64(12), "doc-2", "b.pdf", 4, "second", 0.88)
}

func TestPGRepoSearchFiltersByOwnerInQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := &PGRepo{DB: db}

	mock.ExpectQuery(`WHERE d\.owner_id = \$2 AND dc\.embedding IS NOT NULL`).
		WithArgs("[1.000000,0.000000]", "owner-1", 10, 0).
		WillReturnRows(hitRows())

	hits, err := repo.Search(context.Background(), "owner-1", "[1.000000,0.000000]", 10, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ChunkID != 11 || hits[0].Similarity != 0.93 {
		t.Errorf("first hit = %+v", hits[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPGRepoSearchInDocumentKeepsOwnerFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := &PGRepo{DB: db}

	mock.ExpectQuery(`WHERE d\.owner_id = \$2 AND dc\.document_id = \$3`).
		WithArgs("[1.000000]", "owner-1", "doc-1", 5).
		WillReturnRows(hitRows())

	if _, err := repo.SearchInDocument(context.Background(), "owner-1", "doc-1", "[1.000000]", 5); err != nil {
		t.Fatalf("SearchInDocument: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPGRepoCountMatchesSearchFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := &PGRepo{DB: db}

	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WithArgs("owner-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	n, err := repo.Count(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 42 {
		t.Errorf("count = %d, want 42", n)
	}
}
