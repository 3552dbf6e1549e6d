package protocol

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// HeaderTimeout carries a wait budget in milliseconds.
const HeaderTimeout = "timeout"

// Headers is a string-keyed mapping. Scalar JSON values of any kind are
// accepted on input and kept in their textual form.
type Headers map[string]string

// UnmarshalJSON accepts {"timeout":"500"} as well as {"timeout":500}.
func (h *Headers) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*h = nil
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Headers, len(raw))
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = s
			continue
		}
		out[k] = string(bytes.TrimSpace(v))
	}
	*h = out
	return nil
}

// Request is one decoded client request.
type Request struct {
	Method  string          `json:"Method"`
	Path    string          `json:"Path"`
	Headers Headers         `json:"Headers,omitempty"`
	Payload json.RawMessage `json:"Payload,omitempty"`
}

// Timeout returns the request's wait budget, or def when the header is absent.
// Values too large for a time.Duration are clamped to the maximum.
func (r Request) Timeout(def time.Duration) (time.Duration, error) {
	v, ok := r.Headers[HeaderTimeout]
	if !ok || v == "" {
		return def, nil
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s header %q", HeaderTimeout, v)
	}
	if ms > maxTimeoutMs {
		ms = maxTimeoutMs
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// maxTimeoutMs is the largest millisecond count a time.Duration can hold.
const maxTimeoutMs = math.MaxInt64 / int64(time.Millisecond)

// Response is one server reply.
type Response struct {
	Status  Status          `json:"Status"`
	Headers Headers         `json:"Headers,omitempty"`
	Payload json.RawMessage `json:"Payload,omitempty"`
}

// Reply builds a payload-less response.
func Reply(status Status) Response { return Response{Status: status} }

// ReplyError builds a response carrying an "error" header.
func ReplyError(status Status, err error) Response {
	resp := Response{Status: status}
	if err != nil {
		resp.Headers = Headers{"error": err.Error()}
	}
	return resp
}
