// Package postgres stores generated replies and their source emails in PostgreSQL.
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
	"github.com/jrsteele09/inbox-assist/replies"
)

var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var replyColumns = []string{
	"id", "user_id", "email_id", "thread_id", "subject", "body", "tone", "sentiment",
	"length", "custom_instructions", "status", "created_at", "sent_at",
}

// Store implements replies.Repo.
type Store struct {
	db *sql.DB
}

var _ replies.Repo = (*Store)(nil)

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) RecordEmail(ctx context.Context, email *replies.StoredEmail) error {
	if email.ID == "" {
		email.ID = uuid.New().String()
	}
	query, args, err := psq.Insert("emails").
		Columns("id", "user_id", "gmail_id", "thread_id", "subject", "sender", "body", "received_at").
		Values(email.ID, email.UserID, email.GmailID, email.ThreadID, email.Subject, email.Sender,
			email.Body, nullTime(email.ReceivedAt)).
		Suffix(`ON CONFLICT (user_id, gmail_id) DO UPDATE SET
			subject = EXCLUDED.subject,
			sender = EXCLUDED.sender,
			body = EXCLUDED.body
			RETURNING id`).
		ToSql()
	if err != nil {
		return fmt.Errorf("building email upsert: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&email.ID); err != nil {
		return fmt.Errorf("recording email: %w", err)
	}
	return nil
}

func (s *Store) CreateReply(ctx context.Context, reply *replies.GeneratedReply) error {
	if reply.ID == "" {
		reply.ID = uuid.New().String()
	}
	if reply.Status == "" {
		reply.Status = replies.StatusDraft
	}
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = time.Now().UTC()
	}

	query, args, err := psq.Insert("generated_replies").
		Columns(replyColumns...).
		Values(reply.ID, reply.UserID, reply.EmailID, reply.ThreadID, reply.Subject, reply.Body,
			reply.Tone, reply.Sentiment, reply.Length, reply.CustomInstructions, string(reply.Status),
			reply.CreatedAt, nullTime(reply.SentAt)).
		ToSql()
	if err != nil {
		return fmt.Errorf("building reply insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting reply: %w", err)
	}
	return nil
}

func (s *Store) GetReply(ctx context.Context, userID, replyID string) (*replies.GeneratedReply, error) {
	query, args, err := psq.Select(replyColumns...).From("generated_replies").
		Where(sq.Eq{"id": replyID, "user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building reply query: %w", err)
	}

	var (
		r      replies.GeneratedReply
		status string
		sentAt sql.NullTime
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&r.ID, &r.UserID, &r.EmailID, &r.ThreadID, &r.Subject, &r.Body, &r.Tone, &r.Sentiment,
		&r.Length, &r.CustomInstructions, &status, &r.CreatedAt, &sentAt,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying reply: %w", err)
	}
	r.Status = replies.Status(status)
	if sentAt.Valid {
		r.SentAt = sentAt.Time
	}
	return &r, nil
}

func (s *Store) MarkSent(ctx context.Context, userID, replyID string, sentAt time.Time) error {
	query, args, err := psq.Update("generated_replies").
		Set("status", string(replies.StatusSent)).
		Set("sent_at", sentAt.UTC()).
		Where(sq.Eq{"id": replyID, "user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building reply update: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("marking reply sent: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.ErrNotFound
	}
	return nil
}

// Stats counts replies and stored emails in one round trip.
func (s *Store) Stats(ctx context.Context, userID string) (replies.Stats, error) {
	query, args, err := psq.Select().
		Column(sq.Expr("(SELECT COUNT(*) FROM generated_replies WHERE user_id = ?)", userID)).
		Column(sq.Expr("(SELECT COUNT(*) FROM generated_replies WHERE user_id = ? AND status = ?)", userID, string(replies.StatusSent))).
		Column(sq.Expr("(SELECT COUNT(*) FROM emails WHERE user_id = ?)", userID)).
		ToSql()
	if err != nil {
		return replies.Stats{}, fmt.Errorf("building stats query: %w", err)
	}

	var generated, sent, emails int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&generated, &sent, &emails); err != nil {
		return replies.Stats{}, fmt.Errorf("querying stats: %w", err)
	}
	return replies.NewStats(generated, sent, emails), nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t.UTC(), Valid: !t.IsZero()}
}
