package contracts

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func sampleData() Data {
	return Data{
		ContractType:      "NDA",
		PartyA:            Party{Name: "Acme"},
		PartyB:            Party{Name: "Jane", Email: "jane@example.com"},
		Terms:             "Keep it secret, keep it safe.",
		StartDate:         "2024-01-01",
		EndDate:           "2024-06-30",
		AdditionalClauses: []string{"No poaching."},
	}
}

func TestPGRepoCreateReturnsID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := Record{ContractType: "NDA", Data: sampleData(), CreatedAt: now, UpdatedAt: now}

	mock.ExpectQuery("INSERT INTO contracts").
		WithArgs("NDA", sqlmock.AnyArg(), now, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	got, err := repo.Create(context.Background(), rec)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.ID != 42 {
		t.Fatalf("expected id 42, got %d", got.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetDecodesData(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	raw := []byte(`{"contract_type":"NDA","party_a":{"name":"Acme"},"party_b":{"name":"Jane"},"terms":"Keep it secret.","start_date":"2024-01-01","end_date":"2024-06-30"}`)

	mock.ExpectQuery("SELECT id, contract_type, data, created_at, updated_at").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "contract_type", "data", "created_at", "updated_at"}).
			AddRow(int64(7), "NDA", raw, now, now))

	rec, err := repo.Get(context.Background(), 7)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.ID != 7 || rec.Data.PartyA.Name != "Acme" || rec.Data.EndDate != "2024-06-30" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.Data.AdditionalClauses == nil {
		t.Fatalf("expected empty clause slice, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("FROM contracts").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "contract_type", "data", "created_at", "updated_at"}))

	if _, err := (&PGRepo{DB: db}).Get(context.Background(), 9); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoListAndCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	cols := []string{"id", "contract_type", "data", "created_at", "updated_at"}

	mock.ExpectQuery("ORDER BY id ASC").
		WithArgs(2, 1).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(2), "NDA", []byte(`{"party_a":{"name":"A"}}`), now, now).
			AddRow(int64(3), "Lease", []byte(`{"party_a":{"name":"B"}}`), now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM contracts")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	recs, err := repo.List(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 2 || recs[0].ID != 2 || recs[1].Data.PartyA.Name != "B" {
		t.Fatalf("unexpected records %+v", recs)
	}
	n, err := repo.Count(context.Background())
	if err != nil || n != 3 {
		t.Fatalf("Count = %d, %v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoReplace(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)

	mock.ExpectQuery("UPDATE contracts").
		WithArgs("NDA", sqlmock.AnyArg(), updated, int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))
	mock.ExpectQuery("UPDATE contracts").
		WithArgs("NDA", sqlmock.AnyArg(), updated, int64(6)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}))

	rec, err := repo.Replace(context.Background(), Record{ID: 5, ContractType: "NDA", Data: sampleData(), UpdatedAt: updated})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if !rec.CreatedAt.Equal(created) {
		t.Fatalf("expected created_at from row, got %v", rec.CreatedAt)
	}
	if _, err := repo.Replace(context.Background(), Record{ID: 6, ContractType: "NDA", Data: sampleData(), UpdatedAt: updated}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectExec("DELETE FROM contracts").WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM contracts").WithArgs(int64(2)).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(context.Background(), 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
