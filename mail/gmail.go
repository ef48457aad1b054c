package mail

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/jrsteele09/inbox-assist/internal/errors"
)

const (
	me               = "me"
	fetchConcurrency = 5
)

// GmailOpener opens Gmail mailboxes. One circuit breaker is shared by every
// mailbox it opens.
type GmailOpener struct {
	cb       *gobreaker.CircuitBreaker
	endpoint string
	client   *http.Client
	nowFunc  func() time.Time
}

var _ Opener = (*GmailOpener)(nil)

type OpenerOption func(*GmailOpener)

// WithEndpoint points the Gmail client at another base URL.
func WithEndpoint(endpoint string) OpenerOption {
	return func(o *GmailOpener) {
		o.endpoint = endpoint
	}
}

// WithHTTPClient replaces the token-authorised transport. Used by tests.
func WithHTTPClient(client *http.Client) OpenerOption {
	return func(o *GmailOpener) {
		o.client = client
	}
}

func NewGmailOpener(opts ...OpenerOption) *GmailOpener {
	o := &GmailOpener{
		cb:      newBreaker("gmail-api"),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Open creates a mailbox authorised by accessToken. No refresh happens here;
// callers hand in a token already checked by the lifecycle manager.
func (o *GmailOpener) Open(ctx context.Context, accessToken string) (Mailbox, error) {
	var opts []option.ClientOption
	if o.client != nil {
		opts = append(opts, option.WithHTTPClient(o.client))
	} else {
		opts = append(opts, option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: accessToken,
			TokenType:   "Bearer",
		})))
	}
	if o.endpoint != "" {
		opts = append(opts, option.WithEndpoint(o.endpoint))
	}

	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gmail service: %w", err)
	}
	return &gmailMailbox{svc: svc, cb: o.cb, nowFunc: o.nowFunc}, nil
}

type gmailMailbox struct {
	svc     *gmail.Service
	cb      *gobreaker.CircuitBreaker
	nowFunc func() time.Time
}

func (m *gmailMailbox) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	if opts.MaxResults > MaxResultsLimit {
		opts.MaxResults = MaxResultsLimit
	}
	if opts.Query == "" {
		opts.Query = DefaultQuery
	}

	var listed *gmail.ListMessagesResponse
	err := execute(m.cb, "list", func() error {
		var err error
		listed, err = m.svc.Users.Messages.List(me).MaxResults(opts.MaxResults).Q(opts.Query).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, wrapError(err, "listing messages")
	}

	result := &ListResult{Emails: []Summary{}}
	if len(listed.Messages) == 0 {
		return result, nil
	}

	now := m.nowFunc()
	summaries := make([]Summary, len(listed.Messages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, ref := range listed.Messages {
		g.Go(func() error {
			msg, err := m.fetch(gctx, ref.Id)
			if err != nil {
				return err
			}
			summaries[i] = toSummary(msg, ListBodyLimit, now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, wrapError(err, "fetching message")
	}

	result.Emails = summaries
	for _, s := range summaries {
		if !s.IsRead {
			result.Stats.UnreadCount++
		}
		if s.IsImportant {
			result.Stats.ImportantCount++
		}
	}
	result.Stats.TotalCount = listed.ResultSizeEstimate
	result.TotalCount = listed.ResultSizeEstimate
	return result, nil
}

func (m *gmailMailbox) Get(ctx context.Context, messageID string) (*Detail, error) {
	msg, err := m.fetch(ctx, messageID)
	if err != nil {
		return nil, wrapError(err, "getting message")
	}
	detail := toDetail(msg, m.nowFunc())

	if msg.ThreadId != "" {
		var thread *gmail.Thread
		err := execute(m.cb, "thread", func() error {
			var err error
			thread, err = m.svc.Users.Threads.Get(me, msg.ThreadId).Format("minimal").Context(ctx).Do()
			return err
		})
		switch {
		case err != nil:
			log.Warn().Err(err).Str("thread_id", msg.ThreadId).Msg("thread lookup failed, assuming single message")
		case len(thread.Messages) > 0:
			detail.ThreadLength = len(thread.Messages)
		}
	}
	return detail, nil
}

func (m *gmailMailbox) Modify(ctx context.Context, messageID string, mod Modification) error {
	if mod.MarkAsRead != nil {
		req := &gmail.ModifyMessageRequest{}
		if *mod.MarkAsRead {
			req.RemoveLabelIds = []string{LabelUnread}
		} else {
			req.AddLabelIds = []string{LabelUnread}
		}
		if err := m.modify(ctx, messageID, req); err != nil {
			return wrapError(err, "marking message read state")
		}
	}
	if mod.Star != nil {
		req := &gmail.ModifyMessageRequest{}
		if *mod.Star {
			req.AddLabelIds = []string{LabelStarred}
		} else {
			req.RemoveLabelIds = []string{LabelStarred}
		}
		if err := m.modify(ctx, messageID, req); err != nil {
			return wrapError(err, "starring message")
		}
	}
	if mod.Archive {
		if err := m.modify(ctx, messageID, &gmail.ModifyMessageRequest{RemoveLabelIds: []string{LabelInbox}}); err != nil {
			return wrapError(err, "archiving message")
		}
	}
	if mod.Delete {
		err := execute(m.cb, "trash", func() error {
			_, err := m.svc.Users.Messages.Trash(me, messageID).Context(ctx).Do()
			return err
		})
		if err != nil {
			return wrapError(err, "trashing message")
		}
	}
	return nil
}

func (m *gmailMailbox) Attachment(ctx context.Context, messageID, attachmentID string) (*Content, error) {
	var body *gmail.MessagePartBody
	err := execute(m.cb, "attachment", func() error {
		var err error
		body, err = m.svc.Users.Messages.Attachments.Get(me, messageID, attachmentID).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, wrapError(err, "getting attachment")
	}
	if body.Data == "" {
		return nil, errors.ErrAttachmentNotFound
	}
	data, err := decodeData(body.Data)
	if err != nil {
		return nil, fmt.Errorf("decoding attachment: %w", err)
	}

	msg, err := m.fetch(ctx, messageID)
	if err != nil {
		return nil, wrapError(err, "getting message")
	}
	filename, mimeType := attachmentInfo(msg.Payload, attachmentID)
	return &Content{Filename: filename, MimeType: mimeType, Data: data}, nil
}

func (m *gmailMailbox) SendReply(ctx context.Context, reply Reply) (*SendResult, error) {
	if reply.To == "" || reply.Subject == "" || reply.Body == "" {
		return nil, fmt.Errorf("%w: to, subject and body are required", errors.ErrInvalidReplyRequest)
	}

	msg := &gmail.Message{Raw: composeReply(reply), ThreadId: reply.ThreadID}
	var sent *gmail.Message
	err := execute(m.cb, "send", func() error {
		var err error
		sent, err = m.svc.Users.Messages.Send(me, msg).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, wrapError(err, "sending reply")
	}
	return &SendResult{MessageID: sent.Id, ThreadID: sent.ThreadId}, nil
}

func (m *gmailMailbox) fetch(ctx context.Context, messageID string) (*gmail.Message, error) {
	var msg *gmail.Message
	err := execute(m.cb, "get", func() error {
		var err error
		msg, err = m.svc.Users.Messages.Get(me, messageID).Format("full").Context(ctx).Do()
		return err
	})
	return msg, err
}

func (m *gmailMailbox) modify(ctx context.Context, messageID string, req *gmail.ModifyMessageRequest) error {
	return execute(m.cb, "modify", func() error {
		_, err := m.svc.Users.Messages.Modify(me, messageID, req).Context(ctx).Do()
		return err
	})
}
