// Package broker fans generation stream events out to interested parties.
//
// A Broker hands out Topics keyed by an identifier, usually the document ID.
// Anything holding a Topic can publish stream events into it or subscribe a
// Hook that receives them. The local broker keeps everything in-process; the
// NATS broker carries events across process boundaries using the stream
// event wire encoding.
package broker
