package mail

import (
	"encoding/base64"
	"strings"
	"time"
	"unicode/utf8"

	"google.golang.org/api/gmail/v1"
)

const (
	defaultAttachmentName = "attachment"
	defaultMimeType       = "application/octet-stream"
	maxPartDepth          = 20
)

func header(headers []*gmail.MessagePartHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// decodeData decodes Gmail body data, which is base64url but not always padded.
func decodeData(data string) ([]byte, error) {
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return b, nil
	}
	if b, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return b, nil
	}
	return base64.StdEncoding.DecodeString(data)
}

func partText(part *gmail.MessagePart) string {
	if part == nil || part.Body == nil || part.Body.Data == "" {
		return ""
	}
	b, err := decodeData(part.Body.Data)
	if err != nil {
		return ""
	}
	return string(b)
}

// bodies returns the first text/plain and first text/html content found in a
// depth-first walk of the payload.
func bodies(payload *gmail.MessagePart) (text, htmlBody string) {
	var walk func(p *gmail.MessagePart, depth int)
	walk = func(p *gmail.MessagePart, depth int) {
		if p == nil || depth > maxPartDepth {
			return
		}
		switch p.MimeType {
		case "text/plain":
			if text == "" && p.Filename == "" {
				text = partText(p)
			}
		case "text/html":
			if htmlBody == "" && p.Filename == "" {
				htmlBody = partText(p)
			}
		}
		for _, child := range p.Parts {
			walk(child, depth+1)
		}
	}
	walk(payload, 0)
	return text, htmlBody
}

// readableBody prefers the plain text body and falls back to the HTML body
// flattened to text.
func readableBody(payload *gmail.MessagePart) (body, htmlBody string) {
	text, htmlBody := bodies(payload)
	if text == "" && htmlBody != "" {
		text = htmlToText(htmlBody)
	}
	return text, htmlBody
}

func attachments(payload *gmail.MessagePart) []Attachment {
	var found []Attachment
	var walk func(p *gmail.MessagePart, depth int)
	walk = func(p *gmail.MessagePart, depth int) {
		if p == nil || depth > maxPartDepth {
			return
		}
		if p.Filename != "" && p.Body != nil && p.Body.AttachmentId != "" {
			mimeType := p.MimeType
			if mimeType == "" {
				mimeType = defaultMimeType
			}
			found = append(found, Attachment{
				Filename:     p.Filename,
				MimeType:     mimeType,
				Size:         p.Body.Size,
				AttachmentID: p.Body.AttachmentId,
			})
		}
		for _, child := range p.Parts {
			walk(child, depth+1)
		}
	}
	walk(payload, 0)
	return found
}

// attachmentInfo resolves the filename and content type of an attachment, with
// generic defaults when the payload does not list it.
func attachmentInfo(payload *gmail.MessagePart, attachmentID string) (filename, mimeType string) {
	filename, mimeType = defaultAttachmentName, defaultMimeType
	for _, a := range attachments(payload) {
		if a.AttachmentID == attachmentID {
			filename = a.Filename
			mimeType = a.MimeType
			break
		}
	}
	return filename, mimeType
}

func hasLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

func receivedAt(internalDate int64, now time.Time) time.Time {
	if internalDate <= 0 {
		return now
	}
	return time.UnixMilli(internalDate)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

func toSummary(msg *gmail.Message, bodyLimit int, now time.Time) Summary {
	var headers []*gmail.MessagePartHeader
	if msg.Payload != nil {
		headers = msg.Payload.Headers
	}
	body, _ := readableBody(msg.Payload)
	if bodyLimit > 0 {
		body = truncate(body, bodyLimit)
	}
	labels := msg.LabelIds
	if labels == nil {
		labels = []string{}
	}
	return Summary{
		ID:          msg.Id,
		GmailID:     msg.Id,
		ThreadID:    msg.ThreadId,
		Subject:     header(headers, "Subject"),
		From:        header(headers, "From"),
		To:          header(headers, "To"),
		Body:        body,
		Snippet:     msg.Snippet,
		IsRead:      !hasLabel(labels, LabelUnread),
		IsImportant: hasLabel(labels, LabelImportant),
		ReceivedAt:  receivedAt(msg.InternalDate, now),
		Labels:      labels,
	}
}

func toDetail(msg *gmail.Message, now time.Time) *Detail {
	var headers []*gmail.MessagePartHeader
	if msg.Payload != nil {
		headers = msg.Payload.Headers
	}
	summary := toSummary(msg, 0, now)
	_, htmlBody := readableBody(msg.Payload)
	found := attachments(msg.Payload)
	if found == nil {
		found = []Attachment{}
	}
	return &Detail{
		Summary:      summary,
		Cc:           header(headers, "Cc"),
		Bcc:          header(headers, "Bcc"),
		ReplyTo:      header(headers, "Reply-To"),
		HTMLBody:     htmlBody,
		IsStarred:    hasLabel(summary.Labels, LabelStarred),
		Attachments:  found,
		ThreadLength: 1,
		MessageID:    header(headers, "Message-ID"),
		References:   header(headers, "References"),
		InReplyTo:    header(headers, "In-Reply-To"),
	}
}
