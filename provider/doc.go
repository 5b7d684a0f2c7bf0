// Package provider defines the contract between the generation surface and
// a completion backend, along with the stream events a backend emits while
// a generation is in flight.
//
// A Provider turns one Request into a finite sequence of StreamEvents
// delivered on a channel. The channel is closed when the backend is done,
// whatever the outcome; closing is the teardown signal consumers map to
// their OnComplete handling. Exactly one terminal event (Response or Error)
// precedes the close on every path except cancellation, where the channel
// closes without a terminal event.
//
// Chunk events carry both the increment and the cumulative text assembled
// so far, so consumers never have to re-stitch deltas themselves.
package provider
