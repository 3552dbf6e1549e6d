package protocol

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// DecodeError reports a document that could not be decoded. The stream
// position after a DecodeError is undefined.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "protocol: malformed document: " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

// Decoder reads consecutive JSON documents from a stream.
type Decoder struct {
	dec *json.Decoder
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: json.NewDecoder(bufio.NewReader(r))}
}

// Decode reads the next document into v. It returns io.EOF when the stream
// ends cleanly between documents and a *DecodeError otherwise.
func (d *Decoder) Decode(v interface{}) error {
	err := d.dec.Decode(v)
	switch {
	case err == nil:
		return nil
	case err == io.EOF:
		return io.EOF
	default:
		return &DecodeError{Err: err}
	}
}

// ReadRequest decodes one request and checks that it names a method.
func (d *Decoder) ReadRequest() (Request, error) {
	var req Request
	if err := d.Decode(&req); err != nil {
		return Request{}, err
	}
	if req.Method == "" {
		return Request{}, &DecodeError{Err: errors.New("missing Method")}
	}
	return req, nil
}

// Encoder writes documents one per line and flushes after each.
type Encoder struct {
	bw  *bufio.Writer
	enc *json.Encoder
}

func NewEncoder(w io.Writer) *Encoder {
	bw := bufio.NewWriter(w)
	return &Encoder{bw: bw, enc: json.NewEncoder(bw)}
}

// Encode writes v and flushes it to the underlying writer.
func (e *Encoder) Encode(v interface{}) error {
	if err := e.enc.Encode(v); err != nil {
		return errors.Wrap(err, "protocol: encode")
	}
	return errors.Wrap(e.bw.Flush(), "protocol: flush")
}
