// Package postgres stores provider accounts in PostgreSQL. Tokens are sealed before
// they reach the database.
package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/inbox-assist/accounts"
	"github.com/jrsteele09/inbox-assist/internal/errors"
	"github.com/jrsteele09/inbox-assist/internal/sealer"
)

var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var accountColumns = []string{
	"id", "user_id", "provider", "provider_account_id",
	"access_token", "refresh_token", "expires_at", "scope",
}

// Sealer encrypts token values at rest.
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

// Store implements accounts.Repo.
type Store struct {
	db     *sql.DB
	sealer Sealer
}

var _ accounts.Repo = (*Store)(nil)

func New(db *sql.DB, sealer Sealer) *Store {
	return &Store{db: db, sealer: sealer}
}

func (s *Store) Upsert(ctx context.Context, account *accounts.Account) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	access, refresh, err := s.sealPair(account.AccessToken, account.RefreshToken)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	query, args, err := psq.Insert("accounts").
		Columns("id", "user_id", "provider", "provider_account_id", "access_token",
			"refresh_token", "expires_at", "scope", "created_at", "updated_at").
		Values(account.ID, account.UserID, account.Provider, account.ProviderAccountID, access,
			refresh, nullTime(account.ExpiresAt), account.Scope, now, now).
		Suffix(`ON CONFLICT (user_id, provider) DO UPDATE SET
			provider_account_id = EXCLUDED.provider_account_id,
			access_token = EXCLUDED.access_token,
			refresh_token = CASE WHEN EXCLUDED.refresh_token = '' THEN accounts.refresh_token ELSE EXCLUDED.refresh_token END,
			expires_at = EXCLUDED.expires_at,
			scope = EXCLUDED.scope,
			updated_at = EXCLUDED.updated_at
			RETURNING id`).
		ToSql()
	if err != nil {
		return fmt.Errorf("building account upsert: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&account.ID); err != nil {
		return fmt.Errorf("upserting account: %w", err)
	}
	return nil
}

func (s *Store) GetByUserProvider(ctx context.Context, userID, provider string) (*accounts.Account, error) {
	query, args, err := psq.Select(accountColumns...).From("accounts").
		Where(sq.Eq{"user_id": userID, "provider": provider}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building account query: %w", err)
	}

	var (
		a         accounts.Account
		expiresAt sql.NullTime
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&a.ID, &a.UserID, &a.Provider, &a.ProviderAccountID,
		&a.AccessToken, &a.RefreshToken, &expiresAt, &a.Scope,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying account: %w", err)
	}
	if expiresAt.Valid {
		a.ExpiresAt = expiresAt.Time
	}

	if a.AccessToken, err = s.openToken(a.AccessToken); err != nil {
		return nil, fmt.Errorf("opening access token: %w", err)
	}
	if a.RefreshToken, err = s.openToken(a.RefreshToken); err != nil {
		return nil, fmt.Errorf("opening refresh token: %w", err)
	}
	return &a, nil
}

// openToken treats a value sealed under another key as absent, so the token check
// forces a fresh sign-in instead of failing every request.
func (s *Store) openToken(sealed string) (string, error) {
	plain, err := s.sealer.Open(sealed)
	if stderrors.Is(err, sealer.ErrInvalidCiphertext) {
		log.Warn().Msg("stored account token unreadable, dropping it")
		return "", nil
	}
	return plain, err
}

func (s *Store) UpdateTokens(ctx context.Context, userID, provider, accessToken, refreshToken string, expiresAt time.Time) error {
	access, refresh, err := s.sealPair(accessToken, refreshToken)
	if err != nil {
		return err
	}

	qb := psq.Update("accounts").
		Set("access_token", access).
		Set("expires_at", nullTime(expiresAt)).
		Set("updated_at", time.Now().UTC())
	if refresh != "" {
		qb = qb.Set("refresh_token", refresh)
	}
	return s.execUpdate(ctx, qb.Where(sq.Eq{"user_id": userID, "provider": provider}))
}

func (s *Store) ClearTokens(ctx context.Context, userID, provider string) error {
	qb := psq.Update("accounts").
		Set("access_token", "").
		Set("refresh_token", "").
		Set("expires_at", nil).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"user_id": userID, "provider": provider})
	return s.execUpdate(ctx, qb)
}

func (s *Store) execUpdate(ctx context.Context, qb sq.UpdateBuilder) error {
	query, args, err := qb.ToSql()
	if err != nil {
		return fmt.Errorf("building account update: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating account: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.ErrAccountNotFound
	}
	return nil
}

func (s *Store) sealPair(accessToken, refreshToken string) (string, string, error) {
	access, err := s.sealer.Seal(accessToken)
	if err != nil {
		return "", "", fmt.Errorf("sealing access token: %w", err)
	}
	refresh, err := s.sealer.Seal(refreshToken)
	if err != nil {
		return "", "", fmt.Errorf("sealing refresh token: %w", err)
	}
	return access, refresh, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t.UTC(), Valid: !t.IsZero()}
}
