package mail

import (
	"strings"

	"golang.org/x/net/html"
)

// htmlToText flattens an HTML body to plain text with collapsed whitespace.
// Script and style contents are dropped.
func htmlToText(src string) string {
	z := html.NewTokenizer(strings.NewReader(src))
	var (
		b    strings.Builder
		skip int
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken:
			if isHiddenTag(z) {
				skip++
			}
			b.WriteByte(' ')
		case html.EndTagToken:
			if isHiddenTag(z) && skip > 0 {
				skip--
			}
			b.WriteByte(' ')
		case html.SelfClosingTagToken:
			b.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isHiddenTag(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style", "head", "title":
		return true
	}
	return false
}
