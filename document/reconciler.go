package document

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/underline-app/coauthor/pkg/slogx"
)

// Reconciler applies accepted generation output to the live document and
// rolls provisional changes back on error. It never touches the document
// outside those two operations.
type Reconciler struct {
	editor Editor
}

func NewReconciler(editor Editor) *Reconciler {
	if editor == nil {
		panic("editor cannot be nil")
	}
	return &Reconciler{editor: editor}
}

// Accept commits text into the document as one undo step. With a target
// range the range is replaced in place; without one the text goes in at the
// cursor. A target that went stale under a concurrent edit degrades to a
// cursor insertion so accepted text is never dropped.
func (r *Reconciler) Accept(target *Range, text string) error {
	if target == nil {
		return r.editor.InsertAtCursor(text)
	}

	if !r.editor.Contains(*target) {
		slog.Warn("accept target went stale, inserting at cursor",
			slog.Int("start", target.Start), slog.Int("end", target.End))
		return r.editor.InsertAtCursor(text)
	}

	if err := r.editor.Replace(*target, text); err != nil {
		if errors.Is(err, ErrStaleRange) {
			slog.Warn("accept target went stale, inserting at cursor",
				slog.Int("start", target.Start), slog.Int("end", target.End))
			return r.editor.InsertAtCursor(text)
		}
		return fmt.Errorf("failed to apply accepted text: %w", err)
	}
	return nil
}

// Snapshot captures the text currently occupying target so it can be
// restored later. A nil or stale target yields the empty string.
func (r *Reconciler) Snapshot(target *Range) string {
	if target == nil || !r.editor.Contains(*target) {
		return ""
	}
	text, err := r.editor.TextAt(*target)
	if err != nil {
		return ""
	}
	return text
}

// Rollback restores original into rng. A range that no longer exists is a
// silent no-op: the concurrent edit that invalidated it already owns that
// part of the document.
func (r *Reconciler) Rollback(rng Range, original string) error {
	if !r.editor.Contains(rng) {
		slog.Warn("rollback target went stale, skipping",
			slog.Int("start", rng.Start), slog.Int("end", rng.End))
		return nil
	}

	if err := r.editor.Replace(rng, original); err != nil {
		if errors.Is(err, ErrStaleRange) {
			slog.Warn("rollback target went stale, skipping",
				slog.Int("start", rng.Start), slog.Int("end", rng.End))
			return nil
		}
		slog.Error("rollback failed", slogx.Error(err))
		return fmt.Errorf("failed to roll back provisional text: %w", err)
	}
	return nil
}
