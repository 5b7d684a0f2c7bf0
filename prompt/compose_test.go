package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeEmptyContext(t *testing.T) {
	tests := []struct {
		name        string
		instruction string
	}{
		{name: "plain", instruction: "Fix grammar"},
		{name: "multiline", instruction: "Rewrite this.\nKeep the tone."},
		{name: "empty", instruction: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.instruction, Compose(tt.instruction, Context{}))
		})
	}
}

func TestComposeSnippetsAndSources(t *testing.T) {
	out := Compose("Summarize the argument", Context{
		Snippets: []Snippet{{ID: "sn_1", Title: "Style guide", Content: "Use active voice."}},
		Sources:  []Source{{ID: "src_1", Name: "report.pdf", Type: "pdf", Text: "Q3 revenue grew 12%."}},
	})

	assert.True(t, strings.HasPrefix(out, "Summarize the argument"))
	assert.Contains(t, out, "---SNIPPET: Style guide---")
	assert.Contains(t, out, "Use active voice.")
	assert.Contains(t, out, "---SOURCE: report.pdf (pdf)---")
	assert.Contains(t, out, "Q3 revenue grew 12%.")
	assert.Contains(t, out, "read-only background")
}

func TestComposeDocumentExcerpt(t *testing.T) {
	out := Compose("Continue writing", Context{DocumentExcerpt: "Once upon a time"})

	require.Contains(t, out, "---DOCUMENT EXCERPT---")
	assert.Contains(t, out, "Once upon a time")
	assert.Contains(t, out, "---END DOCUMENT EXCERPT---")
}

func TestComposeTone(t *testing.T) {
	out := Compose("Rewrite", Context{Tone: "formal"})
	assert.Contains(t, out, "formal tone")
}

func TestComposeFallsBackToIDs(t *testing.T) {
	out := Compose("x", Context{
		Snippets: []Snippet{{ID: "sn_9", Content: "a"}},
		Sources:  []Source{{ID: "src_7", Text: "b"}},
	})
	assert.Contains(t, out, "---SNIPPET: sn_9---")
	assert.Contains(t, out, "---SOURCE: src_7---")
}

func TestComposeTruncatesSourceText(t *testing.T) {
	long := strings.Repeat("a", MaxSourceText+500)
	out := Compose("x", Context{Sources: []Source{{Name: "big", Text: long}}})
	assert.NotContains(t, out, long)
	assert.Contains(t, out, strings.Repeat("a", MaxSourceText))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "under limit", in: "hello", max: 10, want: "hello"},
		{name: "exact limit", in: "hello", max: 5, want: "hello"},
		{name: "ascii cut", in: "hello world", max: 5, want: "hello"},
		{name: "zero", in: "hi", max: 0, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.max))
		})
	}
}

func TestTruncateNeverSplitsRunes(t *testing.T) {
	// é is two bytes; a cut at any byte offset must stay valid UTF-8.
	in := strings.Repeat("é", 100)
	for max := 0; max <= len(in); max++ {
		got := Truncate(in, max)
		require.True(t, utf8.ValidString(got), "cut at %d produced invalid utf8", max)
		require.LessOrEqual(t, len(got), max)
	}
}
