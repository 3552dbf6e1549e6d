// Package server runs the TCP front end: an accept loop gated by Admission,
// one Session per connection and a Terminator that lets shutdown wait for
// running sessions.
//
// Shutdown is triggered by the Serve context or by Shutdown (the SHUTDOWN
// method). The listener closes first, then sessions are given the drain
// timeout to finish; requests still pending after that resolve as cancelled.
package server
