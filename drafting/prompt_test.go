package drafting_test

import (
	"testing"

	"github.com/jrsteele09/inbox-assist/drafting"
	"github.com/stretchr/testify/require"
)

func TestSettingsNormalise(t *testing.T) {
	got := drafting.Settings{Tone: "CASUAL", Sentiment: "angry", CustomInstructions: "  sign as J  "}.Normalise()
	require.Equal(t, drafting.Settings{
		Tone:               "casual",
		Sentiment:          drafting.DefaultSentiment,
		Length:             drafting.DefaultLength,
		CustomInstructions: "sign as J",
	}, got)
}

func TestBuildPrompt(t *testing.T) {
	prompt := drafting.BuildPrompt(drafting.Request{
		EmailContent: "Can we meet Friday?",
		EmailSubject: "Meeting",
		SenderName:   "Bob",
		SenderEmail:  "bob@example.com",
		Settings:     drafting.Settings{Tone: "formal", Sentiment: "negative", Length: "short", CustomInstructions: "Offer Monday"},
	})

	require.Contains(t, prompt, "FROM: Bob (bob@example.com)\nSUBJECT: Meeting\n\nEMAIL CONTENT:\nCan we meet Friday?")
	require.Contains(t, prompt, "- Tone: Use a formal, official tone with proper business etiquette")
	require.Contains(t, prompt, "- Sentiment: Politely decline or express concerns about the request")
	require.Contains(t, prompt, "- Length: Keep the response brief and to the point (2-3 sentences)")
	require.Contains(t, prompt, "- Additional Instructions: Offer Monday")
	require.Contains(t, prompt, "SUBJECT: [Reply subject line starting with \"Re: \"]\nBODY:")

	plain := drafting.BuildPrompt(drafting.Request{})
	require.NotContains(t, plain, "Additional Instructions")
	require.Contains(t, plain, "- Tone: Use a professional, business-appropriate tone")
}
