// Package docstream is the transport layer for the document generation
// event stream: a one-way, server-push channel of line-delimited JSON
// events consumed while a document is being written.
//
// The package owns connecting, reconnecting with exponential backoff, and
// decoding messages into typed events; it performs no deduplication and no
// reordering. Event semantics (cumulative token appends, terminal events)
// make duplicates detectable at the consumer, which is the session
// controller in package session.
package docstream
