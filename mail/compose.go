package mail

import (
	"encoding/base64"
	"mime"
	"strings"
)

// composeReply builds an RFC 2822 HTML message and returns it base64url encoded
// without padding, the form Gmail expects in Message.Raw. Newlines in the body
// become <br>.
func composeReply(r Reply) string {
	var b strings.Builder
	writeHeader(&b, "To", r.To)
	writeHeader(&b, "Subject", mime.QEncoding.Encode("utf-8", r.Subject))
	if ref := replyReference(r); ref != "" {
		writeHeader(&b, "In-Reply-To", ref)
		writeHeader(&b, "References", ref)
	}
	writeHeader(&b, "MIME-Version", "1.0")
	writeHeader(&b, "Content-Type", "text/html; charset=utf-8")
	b.WriteString("\r\n")

	body := strings.ReplaceAll(r.Body, "\r\n", "\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "<br>"))

	return base64.RawURLEncoding.EncodeToString([]byte(b.String()))
}

// replyReference prefers the answered message's Message-ID and falls back to the
// thread ID.
func replyReference(r Reply) string {
	if r.InReplyTo != "" {
		return r.InReplyTo
	}
	return r.ThreadID
}

func writeHeader(b *strings.Builder, name, value string) {
	value = strings.NewReplacer("\r", "", "\n", "").Replace(value)
	b.WriteString(name)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\r\n")
}
