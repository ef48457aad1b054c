package replies

import "time"

type Status string

const (
	StatusDraft Status = "DRAFT"
	StatusSent  Status = "SENT"
)

// GeneratedReply is an AI drafted reply to one Gmail message.
type GeneratedReply struct {
	ID                 string
	UserID             string
	EmailID            string // Gmail message ID the reply answers
	ThreadID           string
	Subject            string
	Body               string
	Tone               string
	Sentiment          string
	Length             string
	CustomInstructions string
	Status             Status
	CreatedAt          time.Time
	SentAt             time.Time
}

// StoredEmail is the copy of a message kept when a reply is drafted for it.
type StoredEmail struct {
	ID         string
	UserID     string
	GmailID    string
	ThreadID   string
	Subject    string
	Sender     string
	Body       string
	ReceivedAt time.Time
}
