// Package client provides the `rendezq` command-line client.
//
// The CLI speaks the queue protocol over TCP and queries the gRPC health
// endpoint. It is primarily intended for developers and operators.
//
// # Address configuration
//
// The queue address is read from RENDEZQ_ADDR (default 127.0.0.1:8081)
// and the health address from RENDEZQ_HEALTH (default 127.0.0.1:8082).
//
// Usage
//
//	rendezq queue create --name jobs
//	rendezq queue put --name jobs --data '{"id":1}'
//	rendezq queue transfer --name jobs --data '{"id":2}' --timeout 5s
//	rendezq queue take --name jobs --timeout 5s
//
//	rendezq health
//	rendezq shutdown
//
//	# Local parallel text search, no server involved
//	rendezq search --root ./logs --text ERROR --glob '*.log'
//
// Notes
//
//   - Omitting --timeout on take and transfer leaves the wait budget to
//     the server's default; --timeout 0 turns the call into a probe.
//   - Replies with a status of 400 or above make the command fail after
//     printing the status line.
package client
