// Package postgres stores login sessions in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/inbox-assist/internal/errors"
	"github.com/jrsteele09/inbox-assist/internal/sealer"
	"github.com/jrsteele09/inbox-assist/sessions"
)

var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var sessionColumns = []string{
	"id", "user_id", "email", "name", "image", "access_token",
	"access_token_expires_at", "last_error", "created_at", "expires_at",
}

// Sealer encrypts the access token at rest.
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

// Store implements sessions.Repo.
type Store struct {
	db     *sql.DB
	sealer Sealer
}

var _ sessions.Repo = (*Store)(nil)

func New(db *sql.DB, sealer Sealer) *Store {
	return &Store{db: db, sealer: sealer}
}

func (s *Store) Upsert(ctx context.Context, session sessions.Session) error {
	if session.ID == "" {
		return fmt.Errorf("session ID is required")
	}
	access, err := s.sealer.Seal(session.AccessToken)
	if err != nil {
		return fmt.Errorf("sealing access token: %w", err)
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}

	query, args, err := psq.Insert("login_sessions").
		Columns(sessionColumns...).
		Values(session.ID, session.UserID, session.Email, session.Name, session.Image, access,
			nullTime(session.AccessTokenExpiresAt), session.LastError, session.CreatedAt, session.ExpiresAt.UTC()).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			access_token_expires_at = EXCLUDED.access_token_expires_at,
			last_error = EXCLUDED.last_error,
			expires_at = EXCLUDED.expires_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("building session upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upserting session: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, sessionID string) (sessions.Session, error) {
	query, args, err := psq.Select(sessionColumns...).From("login_sessions").
		Where(sq.Eq{"id": sessionID}).
		ToSql()
	if err != nil {
		return sessions.Session{}, fmt.Errorf("building session query: %w", err)
	}

	var (
		session     sessions.Session
		tokenExpiry sql.NullTime
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&session.ID, &session.UserID, &session.Email, &session.Name, &session.Image,
		&session.AccessToken, &tokenExpiry, &session.LastError, &session.CreatedAt, &session.ExpiresAt,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return sessions.Session{}, errors.ErrSessionNotFound
	}
	if err != nil {
		return sessions.Session{}, fmt.Errorf("querying session: %w", err)
	}
	if tokenExpiry.Valid {
		session.AccessTokenExpiresAt = tokenExpiry.Time
	}
	if session.AccessToken, err = s.sealer.Open(session.AccessToken); err != nil {
		if stderrors.Is(err, sealer.ErrInvalidCiphertext) {
			// Sealed under a different key; the user has to sign in again.
			log.Warn().Str("session_id", sessionID).Msg("session token unreadable, treating session as gone")
			return sessions.Session{}, errors.ErrSessionNotFound
		}
		return sessions.Session{}, fmt.Errorf("opening access token: %w", err)
	}
	return session, nil
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	query, args, err := psq.Delete("login_sessions").Where(sq.Eq{"id": sessionID}).ToSql()
	if err != nil {
		return fmt.Errorf("building session delete: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query, args, err := psq.Delete("login_sessions").Where(sq.LtOrEq{"expires_at": now.UTC()}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("building expired session delete: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted sessions: %w", err)
	}
	return n, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t.UTC(), Valid: !t.IsZero()}
}
