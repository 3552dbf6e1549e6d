package protocol

import (
	"bytes"
	"errors"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDecoderReadsBackToBackDocuments(t *testing.T) {
	in := `{"Method":"CREATE","Path":"q"}{"Method":"PUT","Path":"q","Payload":{"n":1}}
{"Method":"TAKE","Path":"q","Headers":{"timeout":250}}`
	d := NewDecoder(strings.NewReader(in))

	r1, err := d.ReadRequest()
	require.NoError(t, err)
	require.Equal(t, "CREATE", r1.Method)

	r2, err := d.ReadRequest()
	require.NoError(t, err)
	require.JSONEq(t, `{"n":1}`, string(r2.Payload))

	r3, err := d.ReadRequest()
	require.NoError(t, err)
	timeout, err := r3.Timeout(0)
	require.NoError(t, err)
	require.Equal(t, 250*time.Millisecond, timeout)

	_, err = d.ReadRequest()
	require.ErrorIs(t, err, io.EOF)
}

func TestDecoderMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"syntax", `{"Method":`},
		{"not an object", `[1,2]`},
		{"missing method", `{"Path":"q"}`},
		{"garbage", `hello`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDecoder(strings.NewReader(tt.in)).ReadRequest()
			var de *DecodeError
			require.True(t, errors.As(err, &de), "want DecodeError, got %v", err)
		})
	}
}

func TestRequestTimeout(t *testing.T) {
	req := Request{Headers: Headers{HeaderTimeout: "1500"}}
	d, err := req.Timeout(time.Second)
	require.NoError(t, err)
	require.Equal(t, 1500*time.Millisecond, d)

	d, err = Request{}.Timeout(time.Second)
	require.NoError(t, err)
	require.Equal(t, time.Second, d)

	_, err = Request{Headers: Headers{HeaderTimeout: "soon"}}.Timeout(0)
	require.Error(t, err)

	// Huge budgets stay huge instead of wrapping negative.
	d, err = Request{Headers: Headers{HeaderTimeout: "10000000000000"}}.Timeout(0)
	require.NoError(t, err)
	require.Equal(t, time.Duration(math.MaxInt64/int64(time.Millisecond))*time.Millisecond, d)
	require.Greater(t, d, 100*365*24*time.Hour)

	_, err = Request{Headers: Headers{HeaderTimeout: "99999999999999999999"}}.Timeout(0)
	require.Error(t, err)
}

func TestEncoderWritesOneLinePerDocument(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	require.NoError(t, enc.Encode(Reply(StatusOK)))
	require.NoError(t, enc.Encode(ReplyError(StatusNoQueue, errors.New("queue not found"))))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.JSONEq(t, `{"Status":200}`, lines[0])
	require.JSONEq(t, `{"Status":404,"Headers":{"error":"queue not found"}}`, lines[1])

	var resp Response
	require.NoError(t, NewDecoder(strings.NewReader(lines[1])).Decode(&resp))
	require.Equal(t, StatusNoQueue, resp.Status)
}

func TestStatusString(t *testing.T) {
	require.Equal(t, "NO_SERVICE", StatusNoService.String())
	require.Equal(t, "STATUS_299", Status(299).String())
}
