package document

import (
	"fmt"
	"sync"
	"unicode/utf8"
)

var _ Editor = (*BufferEditor)(nil)

// BufferEditor is an in-memory Editor over a plain string buffer. Tests and
// the example binary use it as the host document; each mutation is one undo
// step, mirroring the transactional contract of a real editor backend.
type BufferEditor struct {
	mu      sync.Mutex
	content string
	cursor  int
	undo    []snapshot
}

type snapshot struct {
	content string
	cursor  int
}

func NewBuffer(initial string) *BufferEditor {
	return &BufferEditor{content: initial, cursor: len(initial)}
}

func (b *BufferEditor) Replace(rng Range, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.contains(rng) {
		return ErrStaleRange
	}

	b.undo = append(b.undo, snapshot{content: b.content, cursor: b.cursor})
	b.content = b.content[:rng.Start] + text + b.content[rng.End:]
	b.cursor = rng.Start + len(text)
	return nil
}

func (b *BufferEditor) InsertAtCursor(text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cursor < 0 || b.cursor > len(b.content) {
		return fmt.Errorf("cursor %d out of bounds", b.cursor)
	}

	b.undo = append(b.undo, snapshot{content: b.content, cursor: b.cursor})
	b.content = b.content[:b.cursor] + text + b.content[b.cursor:]
	b.cursor += len(text)
	return nil
}

func (b *BufferEditor) Contains(rng Range) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.contains(rng)
}

// contains requires b.mu held. Boundaries must fall on rune starts so a
// replace can never split a character.
func (b *BufferEditor) contains(rng Range) bool {
	if !rng.Valid() || rng.End > len(b.content) {
		return false
	}
	if rng.Start < len(b.content) && !utf8.RuneStart(b.content[rng.Start]) {
		return false
	}
	if rng.End < len(b.content) && !utf8.RuneStart(b.content[rng.End]) {
		return false
	}
	return true
}

func (b *BufferEditor) TextAt(rng Range) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.contains(rng) {
		return "", ErrStaleRange
	}
	return b.content[rng.Start:rng.End], nil
}

// Undo reverts the most recent transaction. It reports whether there was
// anything to revert.
func (b *BufferEditor) Undo() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.undo) == 0 {
		return false
	}
	last := b.undo[len(b.undo)-1]
	b.undo = b.undo[:len(b.undo)-1]
	b.content = last.content
	b.cursor = last.cursor
	return true
}

// UndoDepth returns how many transactions are on the undo stack.
func (b *BufferEditor) UndoDepth() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.undo)
}

func (b *BufferEditor) Content() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.content
}

func (b *BufferEditor) Cursor() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cursor
}

func (b *BufferEditor) SetCursor(pos int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if pos < 0 {
		pos = 0
	}
	if pos > len(b.content) {
		pos = len(b.content)
	}
	b.cursor = pos
}
