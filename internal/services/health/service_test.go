package health

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestStatusWithoutDatabase(t *testing.T) {
	r, ok := NewService(nil, []string{"basic"}, false).Status(context.Background())
	if !ok || r.Status != "healthy" || r.Database != "memory" || len(r.PDFEngines) != 1 {
		t.Fatalf("unexpected report %+v ok=%v", r, ok)
	}
}

func TestStatusPingsDatabase(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectPing()
	r, ok := NewService(db, nil, true).Status(context.Background())
	if !ok || r.Database != "postgres" || !r.EmailConfigured || r.PDFEngines == nil {
		t.Fatalf("unexpected report %+v ok=%v", r, ok)
	}

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	r, ok = NewService(db, nil, true).Status(context.Background())
	if ok || r.Status != "unhealthy" || r.Database != "unreachable" {
		t.Fatalf("unexpected report %+v ok=%v", r, ok)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
