// Package codec persists a roster.Store to two flat text files.
//
// # Record file
//
// One record per line, fields joined by ';' in a fixed order:
//
//	id;name;email;program;enrollmentYear
//
// Fields are not escaped. A name containing ';' shifts the columns and the
// line is skipped (or misread) on the next load. A field containing a line
// break ('\n' or '\r') splits the record across two lines, and both halves
// are skipped as malformed. The store only trims field ends, so both cases
// are known limitations of the format. Lines have no length limit.
//
// # Checkpoint file
//
// A single decimal integer, optionally followed by a line terminator,
// holding the store's lastID. The checkpoint, not the record ids, drives
// future id minting, with one safety net: after a load the counter is
// raised to the largest loaded id if the checkpoint lags behind it.
//
// # Failure model
//
// Save fails with an IOError when the record file cannot be opened, and in
// that case the checkpoint is not touched. Once the record file is open the
// checkpoint write is always attempted, even if a later record write fails.
//
// Load never fails on malformed content. Bad lines are skipped, logged at
// Warn level and reported in LoadReport; a missing record file means "no
// data yet".
package codec
