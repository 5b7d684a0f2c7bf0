package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcceptReplacesRange(t *testing.T) {
	buf := NewBuffer("the cat sat on the mat")
	rec := NewReconciler(buf)

	target := Range{Start: 0, End: 11}
	require.NoError(t, rec.Accept(&target, "The cat sat."))

	assert.Equal(t, "The cat sat. on the mat", buf.Content())
	assert.Equal(t, 1, buf.UndoDepth(), "accept is one undo step")

	require.True(t, buf.Undo())
	assert.Equal(t, "the cat sat on the mat", buf.Content())
}

func TestAcceptInsertsAtCursor(t *testing.T) {
	buf := NewBuffer("Hello ")
	rec := NewReconciler(buf)

	require.NoError(t, rec.Accept(nil, "world"))

	assert.Equal(t, "Hello world", buf.Content())
	assert.Equal(t, 1, buf.UndoDepth())
}

func TestAcceptStaleRangeFallsBackToCursor(t *testing.T) {
	buf := NewBuffer("short")
	rec := NewReconciler(buf)
	buf.SetCursor(5)

	stale := Range{Start: 10, End: 20}
	require.NoError(t, rec.Accept(&stale, "!"))

	assert.Equal(t, "short!", buf.Content(), "accepted text is never dropped")
}

func TestRollbackRestoresOriginal(t *testing.T) {
	buf := NewBuffer("the cat sat")
	rec := NewReconciler(buf)

	target := Range{Start: 4, End: 7}
	require.NoError(t, buf.Replace(target, "dog"))
	require.Equal(t, "the dog sat", buf.Content())

	require.NoError(t, rec.Rollback(target, "cat"))
	assert.Equal(t, "the cat sat", buf.Content())
}

func TestRollbackStaleRangeIsSilentNoop(t *testing.T) {
	buf := NewBuffer("abc")
	rec := NewReconciler(buf)

	require.NoError(t, rec.Rollback(Range{Start: 50, End: 60}, "never applied"))
	assert.Equal(t, "abc", buf.Content())
	assert.Equal(t, 0, buf.UndoDepth())
}

func TestNewReconcilerNilEditor(t *testing.T) {
	assert.Panics(t, func() { NewReconciler(nil) })
}

func TestBufferReplaceRejectsSplitRune(t *testing.T) {
	buf := NewBuffer("héllo")
	// The é spans bytes 1 and 2; a range ending mid-rune is stale.
	assert.False(t, buf.Contains(Range{Start: 0, End: 2}))
	assert.ErrorIs(t, buf.Replace(Range{Start: 0, End: 2}, "x"), ErrStaleRange)
	assert.True(t, buf.Contains(Range{Start: 0, End: 3}))
}

func TestBufferTextAt(t *testing.T) {
	buf := NewBuffer("the cat sat")

	got, err := buf.TextAt(Range{Start: 4, End: 7})
	require.NoError(t, err)
	assert.Equal(t, "cat", got)

	_, err = buf.TextAt(Range{Start: 4, End: 99})
	assert.ErrorIs(t, err, ErrStaleRange)
}

func TestBufferUndoRestoresCursor(t *testing.T) {
	buf := NewBuffer("ab")
	buf.SetCursor(1)
	require.NoError(t, buf.InsertAtCursor("X"))
	assert.Equal(t, "aXb", buf.Content())
	assert.Equal(t, 2, buf.Cursor())

	require.True(t, buf.Undo())
	assert.Equal(t, "ab", buf.Content())
	assert.Equal(t, 1, buf.Cursor())
	assert.False(t, buf.Undo())
}

func TestRangeValid(t *testing.T) {
	assert.True(t, Range{Start: 0, End: 0}.Valid())
	assert.True(t, Range{Start: 2, End: 5}.Valid())
	assert.False(t, Range{Start: -1, End: 0}.Valid())
	assert.False(t, Range{Start: 5, End: 2}.Valid())
	assert.Equal(t, 3, Range{Start: 2, End: 5}.Len())
}
