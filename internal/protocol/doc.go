// Package protocol defines the rendezq wire documents and their streaming
// JSON encoding.
//
// A connection carries a sequence of self-delimiting JSON objects. Clients
// write requests:
//
//	{"Method":"TRANSFER","Path":"orders","Headers":{"timeout":"5000"},"Payload":{"id":1}}
//
// and the server answers each one, in order, with a response:
//
//	{"Status":200}
//
// Objects are written one per line but the decoder accepts them back to back
// with no separator as well.
package protocol
