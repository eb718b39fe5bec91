package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// UserStore is the credential store consumed by Service.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// Create returns ErrDuplicate when username or email is taken.
	Create(ctx context.Context, username string, email *string, passwordHash string) (*User, error)
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const uniqueViolation = "23505"

func (s *Store) GetByUsername(ctx context.Context, username string) (*User, error) {
	const q = `SELECT id, username, email, password_hash, created_at FROM users WHERE username = $1`
	return s.getOne(ctx, q, username)
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*User, error) {
	const q = `SELECT id, username, email, password_hash, created_at FROM users WHERE email = $1`
	return s.getOne(ctx, q, email)
}

func (s *Store) getOne(ctx context.Context, q string, arg string) (*User, error) {
	row := s.db.QueryRowContext(ctx, q, arg)
	u := &User{}
	var email sql.NullString
	if err := row.Scan(&u.ID, &u.Username, &email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	if email.Valid {
		u.Email = &email.String
	}
	return u, nil
}

func (s *Store) Create(ctx context.Context, username string, email *string, passwordHash string) (*User, error) {
	const q = `
		INSERT INTO users (username, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	u := &User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	}
	if err := s.db.QueryRowContext(ctx, q, username, email, passwordHash, time.Now().UTC()).
		Scan(&u.ID, &u.CreatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}
