/*
Package coauthor implements the AI generation lifecycle of a collaborative
document editor: composing a context-aware prompt, streaming the provider's
incremental response, letting the user accept or reject the result, and
caching prior conversations.

The package is organized around a few abstractions:

  - Surface: the per-editing-surface controller owning the generation state
  - Provider: a completion backend streaming tagged events over a channel
  - Reconciler: applies accepted text to the live document, one undo step
  - Gate: credit pre-check before a request, deduction once it is accepted
  - Service: TTL-bound client cache of past conversations

# Basic Usage

A surface wires a provider, a reconciler over the host document's editor,
and optionally a credit gate and a hook for lifecycle callbacks:

	editor := document.NewBuffer("The quick brown fox.")
	surface := coauthor.NewSurface(
		scribe.New(scribe.WithEndpoint(endpoint)),
		document.NewReconciler(editor),
		coauthor.WithHook(hook),
		coauthor.WithCreditGate(gate),
		coauthor.WithUser("user_1"),
	)

	runID, err := surface.Submit(ctx, "Fix grammar", prompt.Context{
		DocumentExcerpt: editor.Content(),
	}, &document.Range{Start: 0, End: 20})
	if err != nil {
		// Refused: busy, or not enough credits.
	}

	surface.Wait()
	if _, ok := surface.State().(coauthor.Success); ok {
		err = surface.Accept()
	}

The hook's OnChunk callback receives the cumulative assembled text after
each decoded increment. Exactly one of OnSuccess or OnError fires per
submit, followed by OnComplete; a cancelled run goes straight to teardown.

The document is never mutated before Accept: Reject and Cancel leave it
byte-identical to its state before Submit.
*/
package coauthor
