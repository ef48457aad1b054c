// Package mail reads, updates and sends Gmail messages on behalf of a signed-in user.
package mail

import (
	"context"
	"time"
)

const (
	LabelUnread    = "UNREAD"
	LabelImportant = "IMPORTANT"
	LabelStarred   = "STARRED"
	LabelInbox     = "INBOX"

	DefaultQuery      = "in:inbox"
	DefaultMaxResults = 10
	MaxResultsLimit   = 100

	// ListBodyLimit caps the body returned with each list entry, in characters.
	ListBodyLimit = 5000
)

// Summary is one message in an inbox listing.
type Summary struct {
	ID          string    `json:"id"`
	GmailID     string    `json:"gmailId"`
	ThreadID    string    `json:"threadId"`
	Subject     string    `json:"subject"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Body        string    `json:"body"`
	Snippet     string    `json:"snippet"`
	IsRead      bool      `json:"isRead"`
	IsImportant bool      `json:"isImportant"`
	ReceivedAt  time.Time `json:"receivedAt"`
	Labels      []string  `json:"labels"`
}

type ListStats struct {
	UnreadCount    int   `json:"unreadCount"`
	ImportantCount int   `json:"importantCount"`
	TotalCount     int64 `json:"totalCount"`
}

type ListResult struct {
	Emails     []Summary `json:"emails"`
	Stats      ListStats `json:"stats"`
	TotalCount int64     `json:"totalCount"`
}

type ListOptions struct {
	MaxResults int64
	Query      string
}

// Attachment describes a file attached to a message.
type Attachment struct {
	Filename     string `json:"filename"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size"`
	AttachmentID string `json:"attachmentId"`
}

// Detail is a fully parsed message.
type Detail struct {
	Summary
	Cc           string       `json:"cc"`
	Bcc          string       `json:"bcc"`
	ReplyTo      string       `json:"replyTo"`
	HTMLBody     string       `json:"htmlBody"`
	IsStarred    bool         `json:"isStarred"`
	Attachments  []Attachment `json:"attachments"`
	ThreadLength int          `json:"threadLength"`
	MessageID    string       `json:"messageId"`
	References   string       `json:"references"`
	InReplyTo    string       `json:"inReplyTo"`
}

// Modification changes a message's state. Nil fields are left alone.
type Modification struct {
	MarkAsRead *bool `json:"markAsRead,omitempty"`
	Star       *bool `json:"star,omitempty"`
	Archive    bool  `json:"archive,omitempty"`
	Delete     bool  `json:"delete,omitempty"`
}

// Content is a downloaded attachment.
type Content struct {
	Filename string
	MimeType string
	Data     []byte
}

// Reply is an outgoing HTML reply.
type Reply struct {
	To        string
	Subject   string
	Body      string
	ThreadID  string
	InReplyTo string // Message-ID of the message being answered, if known
}

type SendResult struct {
	MessageID string `json:"messageId"`
	ThreadID  string `json:"threadId"`
}

// Mailbox is one user's Gmail mailbox.
type Mailbox interface {
	List(ctx context.Context, opts ListOptions) (*ListResult, error)
	Get(ctx context.Context, messageID string) (*Detail, error)
	Modify(ctx context.Context, messageID string, mod Modification) error
	Attachment(ctx context.Context, messageID, attachmentID string) (*Content, error)
	SendReply(ctx context.Context, reply Reply) (*SendResult, error)
}

// Opener opens a mailbox authorised by an access token.
type Opener interface {
	Open(ctx context.Context, accessToken string) (Mailbox, error)
}
