package drafting_test

import (
	"testing"

	"github.com/jrsteele09/inbox-assist/drafting"
	"github.com/stretchr/testify/require"
)

func TestParseDraft(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want drafting.Draft
	}{
		{
			name: "marked output drops blank body lines",
			in:   "SUBJECT: Re: Lunch\nBODY:\nHi Bob,\n\nSounds good.\n\nJane",
			want: drafting.Draft{Subject: "Re: Lunch", Body: "Hi Bob,\nSounds good.\nJane"},
		},
		{
			name: "subject only falls back to whole text for body",
			in:   "SUBJECT: Re: Lunch",
			want: drafting.Draft{Subject: "Re: Lunch", Body: "SUBJECT: Re: Lunch"},
		},
		{
			name: "body without subject gets default subject",
			in:   "BODY:\nThanks!",
			want: drafting.Draft{Subject: drafting.FallbackSubject, Body: "Thanks!"},
		},
		{
			name: "unmarked paragraphs",
			in:   "Re: Lunch plans\n\nHi Bob,\n\nSee you then.",
			want: drafting.Draft{Subject: "Re: Lunch plans", Body: "Hi Bob,\n\nSee you then."},
		},
		{
			name: "single unmarked paragraph",
			in:   "  Sure, works for me.  ",
			want: drafting.Draft{Subject: drafting.FallbackSubject, Body: "Sure, works for me."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, drafting.ParseDraft(tt.in))
		})
	}
}
