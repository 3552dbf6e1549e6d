// Package rendezvous implements the synchronization primitive behind every
// named queue: a buffer of unclaimed messages plus two FIFO lists of blocked
// callers, transfers (producers waiting for a consumer) and takes (consumers
// waiting for a message).
//
// # Operations
//
//   - Put hands a message to the oldest waiting take, or buffers it.
//   - Transfer hands a message to the oldest waiting take, or buffers it and
//     waits until a take claims it, the timeout elapses or the cancellation
//     context ends.
//   - Take claims the message of the oldest waiting transfer (completing that
//     producer), else the oldest put message, else waits.
//
// Every operation returns a *Future. Futures of operations that finished
// synchronously are already complete.
//
// # Resolution
//
// A waiting request can be resolved by a match, by its timer or by its
// cancellation context. Each request carries an acquire flag; the path that
// flips it first owns the request and the others return without side
// effects. The winner stops the remaining timer/cancellation registration,
// unlinks the request (and, for transfers, its buffered message) and runs the
// matching sweep so that any waiters left pairable are paired in FIFO order.
// Futures are always completed after the queue mutex is released.
//
// Outcomes map onto wire statuses in the router: Matched is OK, TimedOut is
// TIMEOUT, Expired is SERVER_ERR and Cancelled is NO_SERVICE.
package rendezvous
