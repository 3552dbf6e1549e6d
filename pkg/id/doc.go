// Package id provides a 128-bit, lexicographically sortable identifier used
// to key pending requests inside a queue.
//
// # Format
//
// The ID is 16 bytes big-endian: [8 bytes ms_timestamp][8 bytes sequence].
// Byte-wise comparison preserves creation order, and IDs generated within
// the same millisecond remain strictly increasing by sequence.
//
// # Monotonicity
//
// A Generator never goes backwards: when the clock regresses it pins to the
// last seen millisecond and keeps counting, and when the sequence would
// overflow within a millisecond it waits for the next one.
//
// Usage
//
//	g := id.NewGenerator()
//	reqID := g.Next()
//	logger.Debug("take pending", log.Str("req", reqID.Short()))
package id
