// Package roster provides the in-memory student record store.
//
// The store owns an ordered collection of records plus the monotonic id
// counter used to mint new ids. It is the only component allowed to create,
// mutate or destroy a Record; everything it returns is a copy.
//
// # Invariants
//
//   - At most one live record per id.
//   - Ids are minted as ++lastID and never reused, even after Delete.
//   - Iteration order is insertion order. Delete does not reorder the
//     remaining records and Update mutates a record in place.
//   - Clear empties the collection but leaves lastID untouched.
//
// # Concurrency
//
// Store is not safe for concurrent use. Every operation runs to completion
// on the calling goroutine; callers that share a Store must serialize
// access themselves.
package roster
