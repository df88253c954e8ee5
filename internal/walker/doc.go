// Package walker drives the chapter chain traversal. Starting from a
// validated chapter URL it repeatedly fetches the current node,
// resolves its pagination, assembles the full chapter text from its
// sub-pages, persists the record, and follows the next-chapter pointer
// until the chain ends, the consecutive failure budget is exhausted,
// or the run is cancelled.
//
// The traversal is an explicit state machine. Cancellation is observed
// at every state transition, so an interrupted run stops at a record
// boundary and the output file stays well-formed.
package walker
