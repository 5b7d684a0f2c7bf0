// Package prompt builds the composite instruction sent to the completion
// provider. Composition is a pure function: raw user instruction plus
// optional contextual material (snippets, sources, a document excerpt)
// rendered into one string with delimited sections. The delimiters tell the
// model the context is read-only background and that only the targeted
// transformation should be returned.
package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// MaxSourceText bounds the extracted text of a single source.
	MaxSourceText = 1500
	// MaxDocumentExcerpt bounds the inlined document excerpt.
	MaxDocumentExcerpt = 3000
)

// Snippet is a piece of reusable reference text the user attached to the
// request.
type Snippet struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Source is an external reference (upload, URL, ...) with extracted text.
type Source struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	Text string `json:"extractedText"`
}

// Context carries the optional background material for a generation request.
// The zero value means "no context" and leaves the instruction untouched.
type Context struct {
	Snippets        []Snippet
	Sources         []Source
	DocumentExcerpt string
	Tone            string
}

func (c Context) isEmpty() bool {
	return len(c.Snippets) == 0 && len(c.Sources) == 0 && c.DocumentExcerpt == "" && c.Tone == ""
}

// Compose renders the instruction and context into the composite prompt.
// An empty context returns the instruction unchanged.
func Compose(instruction string, ctx Context) string {
	if ctx.isEmpty() {
		return instruction
	}

	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString("\n")

	if ctx.Tone != "" {
		fmt.Fprintf(&b, "\nTone: write the result in a %s tone.\n", ctx.Tone)
	}

	b.WriteString("\nThe material below is read-only background. Do not rewrite, summarize, or echo it. Return only the result of applying the instruction above.\n")

	for _, sn := range ctx.Snippets {
		title := sn.Title
		if title == "" {
			title = sn.ID
		}
		fmt.Fprintf(&b, "\n---SNIPPET: %s---\n", title)
		b.WriteString(sn.Content)
		b.WriteString("\n---END SNIPPET---\n")
	}

	for _, src := range ctx.Sources {
		name := src.Name
		if name == "" {
			name = src.ID
		}
		if src.Type != "" {
			fmt.Fprintf(&b, "\n---SOURCE: %s (%s)---\n", name, src.Type)
		} else {
			fmt.Fprintf(&b, "\n---SOURCE: %s---\n", name)
		}
		b.WriteString(Truncate(src.Text, MaxSourceText))
		b.WriteString("\n---END SOURCE---\n")
	}

	if ctx.DocumentExcerpt != "" {
		b.WriteString("\n---DOCUMENT EXCERPT---\n")
		b.WriteString(Truncate(ctx.DocumentExcerpt, MaxDocumentExcerpt))
		b.WriteString("\n---END DOCUMENT EXCERPT---\n")
	}

	return b.String()
}

// Truncate cuts s to at most max bytes without splitting a UTF-8 sequence.
// The cut backs up to the nearest rune boundary.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
