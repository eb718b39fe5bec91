// Package catalog stores and serves the products, categories, suppliers,
// customers and orders of the price list.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrInvalidInput = errors.New("invalid input")
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) queryRow(ctx context.Context, b sq.Sqlizer, dest ...any) error {
	q, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return mapError(s.db.QueryRowContext(ctx, q, args...).Scan(dest...))
}

func (s *Store) query(ctx context.Context, b sq.Sqlizer, scan func(*sql.Rows) error) error {
	q, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return mapError(err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// deleteByID removes one row and reports ErrNotFound when nothing matched.
func (s *Store) deleteByID(ctx context.Context, table string, id int64) error {
	q, args, err := psql.Delete(table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return mapError(err)
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

// mustExist returns ErrNotFound naming what is missing.
func (s *Store) mustExist(ctx context.Context, table, what string, id int64) error {
	var one int
	err := s.queryRow(ctx, psql.Select("1").From(table).Where(sq.Eq{"id": id}), &one)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return err
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case uniqueViolation:
			return ErrConflict
		case foreignKeyViolation:
			return fmt.Errorf("referenced record: %w", ErrNotFound)
		}
	}
	return err
}
