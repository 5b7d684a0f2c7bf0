// Package document bridges the generation lifecycle and the host document.
// The host editor exposes a transactional mutation API; every change made
// here funnels through it so collaborative-editing and undo semantics stay
// consistent with the rest of the application.
package document

import "errors"

// ErrStaleRange reports that a range no longer addresses valid content in
// the live document, typically because of a concurrent edit.
var ErrStaleRange = errors.New("range no longer exists in document")

// Range addresses a span of the document by byte offsets, Start inclusive,
// End exclusive. The zero Range is the empty span at the document start.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes the range covers.
func (r Range) Len() int {
	return r.End - r.Start
}

// Valid reports whether the range is well-formed on its own terms. It says
// nothing about whether the live document still contains it; that check
// belongs to the editor.
func (r Range) Valid() bool {
	return r.Start >= 0 && r.End >= r.Start
}

// Editor is the host document's transactional mutation surface. Each call
// is one atomic, undo-coalesced transaction by contract.
type Editor interface {
	// Replace deletes exactly rng and inserts text at its start offset.
	// It returns ErrStaleRange when rng no longer exists.
	Replace(rng Range, text string) error

	// InsertAtCursor inserts text at the current cursor position.
	InsertAtCursor(text string) error

	// Contains reports whether rng still addresses valid content.
	Contains(rng Range) bool

	// TextAt returns the text currently occupying rng.
	TextAt(rng Range) (string, error)
}
