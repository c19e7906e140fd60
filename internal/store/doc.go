// Package store provides a SQLite-backed snapshot of a roster.
//
// It is an alternative to the flat-file codec with the same contract:
//   - Save replaces the stored records and checkpoint with the store's
//     current contents, in one transaction.
//   - Load clears the store, reads the checkpoint, restores rows in their
//     saved order and skips rows the store rejects.
//
// Failures are reported as *codec.IOError so callers treat both backends
// alike.
//
// # Connection settings
//
// A database holds one snapshot, rewritten whole by each Save:
//   - journal_mode=DELETE, synchronous=FULL: a committed snapshot is on disk
//     before Save returns
//   - busy_timeout=5000: a second process waits up to 5 seconds for the lock
//   - immediate transactions: Save holds the write lock from its first statement
//
// The schema version lives in user_version. Version 0 databases had no
// checkpoint table; opening one seeds the checkpoint from the largest id.
package store
