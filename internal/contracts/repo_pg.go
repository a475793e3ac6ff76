package contracts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres. The contract document lives in a
// JSONB column.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, rec Record) (Record, error) {
	const query = `
INSERT INTO contracts (contract_type, data, created_at, updated_at)
VALUES ($1, $2, $3, $4)
RETURNING id`

	raw, err := json.Marshal(rec.Data)
	if err != nil {
		return Record{}, fmt.Errorf("encode contract data: %w", err)
	}
	if err := r.DB.QueryRowContext(ctx, query, rec.ContractType, string(raw), rec.CreatedAt, rec.UpdatedAt).Scan(&rec.ID); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (r *PGRepo) Get(ctx context.Context, id int64) (Record, error) {
	const query = `
SELECT id, contract_type, data, created_at, updated_at
FROM contracts
WHERE id = $1`

	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

func (r *PGRepo) List(ctx context.Context, offset, limit int) ([]Record, error) {
	const query = `
SELECT id, contract_type, data, created_at, updated_at
FROM contracts
ORDER BY id ASC
LIMIT $1 OFFSET $2`

	if offset < 0 {
		offset = 0
	}
	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PGRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM contracts`).Scan(&n)
	return n, err
}

func (r *PGRepo) Replace(ctx context.Context, rec Record) (Record, error) {
	const query = `
UPDATE contracts
SET contract_type = $1, data = $2, updated_at = $3
WHERE id = $4
RETURNING created_at`

	raw, err := json.Marshal(rec.Data)
	if err != nil {
		return Record{}, fmt.Errorf("encode contract data: %w", err)
	}
	err = r.DB.QueryRowContext(ctx, query, rec.ContractType, string(raw), rec.UpdatedAt, rec.ID).Scan(&rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

func (r *PGRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM contracts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec Record
		raw []byte
	)
	if err := row.Scan(&rec.ID, &rec.ContractType, &raw, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal(raw, &rec.Data); err != nil {
		return Record{}, fmt.Errorf("decode contract %d data: %w", rec.ID, err)
	}
	if rec.Data.AdditionalClauses == nil {
		rec.Data.AdditionalClauses = []string{}
	}
	return rec, nil
}

var (
	_ Repo = (*PGRepo)(nil)
	_ Repo = (*MemoryRepo)(nil)
)
