// Package stream turns Infactory API responses into one uniform result shape.
//
// A call either returns a buffered JSON body or an open Server-Sent-Events
// stream. Streams flow through three stages:
//
//	bytes --DecodeChunk--> Frame --Classifier--> Event --Aggregator--> Result
//
// DecodeChunk is a pure state machine over DecoderState, so frames come out the
// same no matter how the transport splits the bytes. The Classifier maps each
// frame to exactly one Event of a closed set of kinds, falling back to
// EventUnknown rather than dropping anything. The Aggregator folds events into
// a single Result.
//
// Callers pick how they consume a Stream:
//
//   - pull: Stream.Next or range over Stream.All
//   - push: Subscribe (background) or Consume (inline) with a Sink
//   - aggregate: Aggregate, or Normalize on a Response
//
// A Stream can be consumed once. A second consumer gets ErrStreamConsumed.
package stream
