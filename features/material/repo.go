package material

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const selectColumns = `SELECT id, files, content_hash, status, chunk_count, error, created_at, updated_at FROM materials`

func (r *PostgresRepo) Save(ctx context.Context, m *Material) error {
	query := `INSERT INTO materials (id, files, content_hash, status) VALUES ($1, $2, $3, $4) RETURNING created_at, updated_at`
	return r.db.QueryRowContext(ctx, query, m.ID, pq.Array(m.Files), m.ContentHash, m.Status).Scan(&m.CreatedAt, &m.UpdatedAt)
}

func (r *PostgresRepo) UpdateStatus(ctx context.Context, id, status string, chunks int, errMsg string) error {
	query := `UPDATE materials SET status = $1, chunk_count = $2, error = $3, updated_at = NOW() WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, status, chunks, errMsg, id)
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

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Material, error) {
	return r.one(ctx, selectColumns+` WHERE id = $1`, id)
}

// Latest returns the most recently completed batch, which is what the index holds.
func (r *PostgresRepo) Latest(ctx context.Context) (*Material, error) {
	return r.one(ctx, selectColumns+` WHERE status = 'completed' ORDER BY updated_at DESC LIMIT 1`)
}

func (r *PostgresRepo) List(ctx context.Context) ([]Material, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Material
	for rows.Next() {
		var m Material
		if err := scan(rows, &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM materials`).Scan(&count)
	return count, err
}

func (r *PostgresRepo) one(ctx context.Context, query string, args ...interface{}) (*Material, error) {
	var m Material
	if err := scan(r.db.QueryRowContext(ctx, query, args...), &m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scan(s scanner, m *Material) error {
	return s.Scan(&m.ID, pq.Array(&m.Files), &m.ContentHash, &m.Status, &m.Chunks, &m.Error, &m.CreatedAt, &m.UpdatedAt)
}
