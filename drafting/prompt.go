// Package drafting turns an incoming email and the user's reply settings into an
// AI drafted reply.
package drafting

import (
	"fmt"
	"strings"
)

const (
	DefaultTone      = "professional"
	DefaultSentiment = "positive"
	DefaultLength    = "medium"
)

var toneInstructions = map[string]string{
	"casual":       "Use a casual, friendly tone with informal language",
	"professional": "Use a professional, business-appropriate tone",
	"formal":       "Use a formal, official tone with proper business etiquette",
}

var sentimentInstructions = map[string]string{
	"positive": "Respond positively, agreeing or accepting the request where appropriate",
	"neutral":  "Respond neutrally and professionally, providing information or clarification",
	"negative": "Politely decline or express concerns about the request",
}

var lengthInstructions = map[string]string{
	"short":    "Keep the response brief and to the point (2-3 sentences)",
	"medium":   "Provide a balanced response with appropriate detail (1-2 paragraphs)",
	"detailed": "Provide a comprehensive response with full details and explanations",
}

// Settings shape the generated reply.
type Settings struct {
	Tone               string `json:"tone"`
	Sentiment          string `json:"sentiment"`
	Length             string `json:"length"`
	CustomInstructions string `json:"customInstructions"`
}

// Normalise lowercases the settings and replaces unknown or empty values with
// the defaults.
func (s Settings) Normalise() Settings {
	s.Tone = pick(toneInstructions, s.Tone, DefaultTone)
	s.Sentiment = pick(sentimentInstructions, s.Sentiment, DefaultSentiment)
	s.Length = pick(lengthInstructions, s.Length, DefaultLength)
	s.CustomInstructions = strings.TrimSpace(s.CustomInstructions)
	return s
}

func pick(table map[string]string, value, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if _, ok := table[value]; ok {
		return value
	}
	return fallback
}

// Request is the email being answered plus the reply settings.
type Request struct {
	EmailContent string
	EmailSubject string
	SenderName   string
	SenderEmail  string
	Settings     Settings
}

// BuildPrompt renders the generation prompt. Settings are normalised first.
func BuildPrompt(req Request) string {
	s := req.Settings.Normalise()

	var b strings.Builder
	b.WriteString("You are an AI assistant helping to generate professional email replies. Please create a response to the following email:\n\n")
	fmt.Fprintf(&b, "FROM: %s (%s)\n", req.SenderName, req.SenderEmail)
	fmt.Fprintf(&b, "SUBJECT: %s\n\n", req.EmailSubject)
	b.WriteString("EMAIL CONTENT:\n")
	b.WriteString(req.EmailContent)
	b.WriteString("\n\nREPLY REQUIREMENTS:\n")
	fmt.Fprintf(&b, "- Tone: %s\n", toneInstructions[s.Tone])
	fmt.Fprintf(&b, "- Sentiment: %s\n", sentimentInstructions[s.Sentiment])
	fmt.Fprintf(&b, "- Length: %s\n", lengthInstructions[s.Length])
	if s.CustomInstructions != "" {
		fmt.Fprintf(&b, "- Additional Instructions: %s\n", s.CustomInstructions)
	}
	b.WriteString(`
Please format your response as follows:
SUBJECT: [Reply subject line starting with "Re: "]
BODY:
[The email body content]

Make sure the reply:
1. Addresses the main points from the original email
2. Maintains the requested tone and sentiment
3. Includes appropriate greetings and closing
4. Is contextually relevant and helpful
5. Follows professional email etiquette`)
	return b.String()
}
