package slogx

import (
	"fmt"
	"log/slog"
	"time"
)

// Error returns a slog.Attr for the provided error. The attribute key is
// "error" and the value is the error's message.
func Error(err error) slog.Attr {
	return slog.String("error", err.Error())
}

// Stringer creates a slog.Attr with the provided key and the string
// representation of the given fmt.Stringer value.
func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.String(key, value.String())
}

// Elapsed creates a slog.Attr recording a duration since the given start
// time. Used for request timing in the wire-facing clients.
func Elapsed(key string, start time.Time) slog.Attr {
	return slog.Duration(key, time.Since(start))
}

// DocumentID creates a slog.Attr for a document identifier. Chat history
// and reconciler logs key on this so editor sessions can be correlated.
func DocumentID(id string) slog.Attr {
	return slog.String("document_id", id)
}
