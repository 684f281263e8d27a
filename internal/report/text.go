// Package report models assessment reports as tables of message text and
// renders them as plain text or HTML.
package report

import (
	"html"
	"strings"
)

// Text is a piece of report text that can render itself either way.
type Text interface {
	HTML() string
	PlainText() string
}

// Plain is a single run of text.
type Plain string

// HTML returns the escaped text.
func (p Plain) HTML() string { return html.EscapeString(string(p)) }

// PlainText returns the text unchanged.
func (p Plain) PlainText() string { return string(p) }

// Composite joins its parts with single spaces, collapsing any whitespace
// the parts carry at their edges or inside them.
type Composite []Text

// Textf builds a Composite from strings and Text values. Strings become Plain.
func Textf(parts ...any) Composite {
	c := make(Composite, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case Text:
			c = append(c, v)
		case string:
			c = append(c, Plain(v))
		}
	}
	return c
}

// HTML renders every part as HTML.
func (c Composite) HTML() string {
	parts := make([]string, len(c))
	for i, t := range c {
		parts[i] = t.HTML()
	}
	return collapse(parts)
}

// PlainText renders every part as plain text.
func (c Composite) PlainText() string {
	parts := make([]string, len(c))
	for i, t := range c {
		parts[i] = t.PlainText()
	}
	return collapse(parts)
}

func collapse(parts []string) string {
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
