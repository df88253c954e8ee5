// Package sink persists harvested chapters to an append-only UTF-8
// text file. Records are framed with separator rules and a centered
// title line, and the file opens with a run header and closes with a
// run summary so a partially harvested file is still self-describing.
//
// Writes are serialized through a single writer goroutine: producers
// enqueue formatted records and never touch the file directly, which
// keeps record boundaries intact no matter how chapters are assembled.
package sink
