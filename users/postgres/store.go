// Package postgres stores users in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/jrsteele09/inbox-assist/internal/errors"
	"github.com/jrsteele09/inbox-assist/users"
)

var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var userColumns = []string{"id", "email", "name", "image", "created_at", "updated_at"}

// Store implements users.UserRepo.
type Store struct {
	db *sql.DB
}

var _ users.UserRepo = (*Store)(nil)

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Upsert inserts the user keyed by email. On conflict the name and image are
// refreshed and the existing id is kept.
func (s *Store) Upsert(ctx context.Context, user *users.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.Email = users.NormaliseEmail(user.Email)
	now := time.Now().UTC()

	query, args, err := psq.Insert("users").
		Columns("id", "email", "name", "image", "created_at", "updated_at").
		Values(user.ID, user.Email, user.Name, user.Image, now, now).
		Suffix("ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, image = EXCLUDED.image, updated_at = EXCLUDED.updated_at RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("building user upsert: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.CreatedAt); err != nil {
		return fmt.Errorf("upserting user: %w", err)
	}
	user.UpdatedAt = now
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*users.User, error) {
	return s.getOne(ctx, sq.Eq{"id": id})
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return s.getOne(ctx, sq.Eq{"email": users.NormaliseEmail(email)})
}

func (s *Store) Delete(ctx context.Context, id string) error {
	query, args, err := psq.Delete("users").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("building user delete: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.ErrUserNotFound
	}
	return nil
}

func (s *Store) getOne(ctx context.Context, where sq.Eq) (*users.User, error) {
	query, args, err := psq.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building user query: %w", err)
	}

	var u users.User
	err = s.db.QueryRowContext(ctx, query, args...).
		Scan(&u.ID, &u.Email, &u.Name, &u.Image, &u.CreatedAt, &u.UpdatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &u, nil
}
