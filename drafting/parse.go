package drafting

import "strings"

const FallbackSubject = "Re: Your Email"

// Draft is a parsed reply.
type Draft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// ParseDraft extracts the subject and body from generator output.
//
// The expected shape is a "SUBJECT:" line followed by "BODY:" and the body lines;
// blank body lines are dropped. When neither marker yields anything, the first
// paragraph is taken as the subject and the rest as the body, and failing that
// the whole text becomes the body under FallbackSubject.
func ParseDraft(text string) Draft {
	var (
		subject string
		body    strings.Builder
		inBody  bool
	)
	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "SUBJECT:"):
			subject = strings.TrimSpace(strings.Replace(line, "SUBJECT:", "", 1))
		case strings.HasPrefix(line, "BODY:"):
			inBody = true
		case inBody && strings.TrimSpace(line) != "":
			body.WriteString(line)
			body.WriteString("\n")
		}
	}

	bodyText := body.String()
	if subject == "" && bodyText == "" {
		parts := strings.Split(text, "\n\n")
		if len(parts) >= 2 {
			subject = "Re: " + strings.TrimSpace(strings.Replace(parts[0], "Re: ", "", 1))
			bodyText = strings.Join(parts[1:], "\n\n")
		} else {
			subject = FallbackSubject
			bodyText = text
		}
	}

	if subject == "" {
		subject = FallbackSubject
	}
	bodyText = strings.TrimSpace(bodyText)
	if bodyText == "" {
		bodyText = strings.TrimSpace(text)
	}
	return Draft{Subject: subject, Body: bodyText}
}
