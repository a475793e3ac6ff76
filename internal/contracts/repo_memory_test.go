package contracts

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryRepoLifecycle(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	now := time.Now().UTC()

	first, err := repo.Create(ctx, Record{ContractType: "NDA", Data: sampleData(), CreatedAt: now, UpdatedAt: now})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, _ := repo.Create(ctx, Record{ContractType: "Lease", Data: sampleData(), CreatedAt: now, UpdatedAt: now})
	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("expected sequential ids, got %d and %d", first.ID, second.ID)
	}

	// Mutating a returned record must not leak into storage.
	got, _ := repo.Get(ctx, 1)
	got.Data.AdditionalClauses[0] = "changed"
	again, _ := repo.Get(ctx, 1)
	if again.Data.AdditionalClauses[0] != "No poaching." {
		t.Fatalf("stored clauses were mutated")
	}

	later := now.Add(time.Minute)
	data := sampleData()
	data.Terms = "Replaced terms for the contract."
	replaced, err := repo.Replace(ctx, Record{ID: 1, ContractType: "NDA v2", Data: data, UpdatedAt: later})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if !replaced.CreatedAt.Equal(now) || !replaced.UpdatedAt.Equal(later) || replaced.ContractType != "NDA v2" {
		t.Fatalf("unexpected replaced record %+v", replaced)
	}

	page, _ := repo.List(ctx, 1, 10)
	if len(page) != 1 || page[0].ID != 2 {
		t.Fatalf("unexpected page %+v", page)
	}
	if page, _ := repo.List(ctx, 5, 10); len(page) != 0 {
		t.Fatalf("expected empty page past the end")
	}

	if err := repo.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := repo.Replace(ctx, Record{ID: 1}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on replace, got %v", err)
	}
	if n, _ := repo.Count(ctx); n != 1 {
		t.Fatalf("expected 1 record left, got %d", n)
	}
}
