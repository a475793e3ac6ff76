package contracts

import "context"

// Repo persists contract records.
type Repo interface {
	// Create assigns the id and returns the stored record.
	Create(ctx context.Context, rec Record) (Record, error)
	Get(ctx context.Context, id int64) (Record, error)
	// List returns records ordered by id ascending.
	List(ctx context.Context, offset, limit int) ([]Record, error)
	Count(ctx context.Context) (int, error)
	// Replace swaps type and data of an existing record and refreshes UpdatedAt.
	Replace(ctx context.Context, rec Record) (Record, error)
	Delete(ctx context.Context, id int64) error
}
