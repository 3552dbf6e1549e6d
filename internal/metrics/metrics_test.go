package metrics

import (
	"bytes"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rzbill/rendezq/internal/rendezvous"
	logpkg "github.com/rzbill/rendezq/pkg/log"
)

func TestCounters(t *testing.T) {
	m := New()
	m.ConnAccepted()
	m.ConnAccepted()
	m.ConnRejected()
	m.Request("PUT")
	m.Response(200)
	m.Response(200)
	m.Observe("q", rendezvous.Expired)

	require.EqualValues(t, 2, m.Count(ConnAccepted))
	require.EqualValues(t, 1, m.Count(ConnRejected))
	require.EqualValues(t, 1, m.RequestCount("PUT"))
	require.EqualValues(t, 0, m.RequestCount("TAKE"))
	require.EqualValues(t, 2, m.ResponseCount(200))
	require.EqualValues(t, 1, m.OutcomeCount(rendezvous.Expired))
}

func TestSessionsGauge(t *testing.T) {
	m := New()
	done1 := m.SessionStarted()
	done2 := m.SessionStarted()
	done1()

	fields := m.snapshotFields()
	var active interface{}
	for _, f := range fields {
		if f.Key == SessionsActive {
			active = f.Value
		}
	}
	require.EqualValues(t, 1, active)
	done2()
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ConnAccepted()
	m.ConnRejected()
	m.Request("PUT")
	m.Response(404)
	m.Observe("q", rendezvous.Matched)
	m.SessionStarted()()
	m.LogSnapshot(logpkg.NewNopLogger())
}

func TestStorageHookAndSnapshotLog(t *testing.T) {
	m := New()
	hook := m.StorageHook()
	hook.ObserveWrite(2*time.Millisecond, 64)
	hook.ObserveRead(time.Millisecond, 10)
	hook.ObserveScan(time.Millisecond, 3)

	var buf bytes.Buffer
	logger := logpkg.NewLogger(logpkg.WithOutput(logpkg.NewWriterOutput(&buf)), logpkg.WithFormatter(&logpkg.TextFormatter{}))
	m.LogSnapshot(logger)

	out := buf.String()
	require.Contains(t, out, "metrics snapshot")
	require.Contains(t, out, "storage.write.count=1")
	require.Contains(t, out, "storage.write.bytes.sum=64")
}

func TestPrometheusHandler(t *testing.T) {
	m := New()
	m.Request("TAKE")
	m.Response(204)
	m.StorageHook().ObserveWrite(time.Millisecond, 8)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	require.True(t, strings.Contains(text, "rendezq_requests_TAKE 1"), text)
	require.Contains(t, text, "rendezq_responses_204 1")
	require.Contains(t, text, "rendezq_storage_write_count 1")
	require.Contains(t, text, "rendezq_sessions_active 0")
}
