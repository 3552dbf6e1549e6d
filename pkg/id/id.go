package id

import (
	"encoding/binary"
	"encoding/hex"
	"math"
	"sync"
	"time"
)

// ID is a 128-bit sortable identifier: [8 bytes ms timestamp][8 bytes sequence].
type ID [16]byte

// Millis returns the embedded creation time in ms since the Unix epoch.
func (i ID) Millis() int64 { return int64(binary.BigEndian.Uint64(i[0:8])) }

// Seq returns the per-millisecond sequence.
func (i ID) Seq() uint64 { return binary.BigEndian.Uint64(i[8:16]) }

// String returns the full hex form.
func (i ID) String() string { return hex.EncodeToString(i[:]) }

// Short returns a compact form for log lines: ms timestamp and sequence.
func (i ID) Short() string {
	return hex.EncodeToString(i[2:8]) + "-" + hex.EncodeToString(trimLeadingZeros(i[8:16]))
}

// Compare returns -1, 0, 1 based on lexical comparison.
func (i ID) Compare(other ID) int {
	for idx := 0; idx < len(i); idx++ {
		if i[idx] < other[idx] {
			return -1
		}
		if i[idx] > other[idx] {
			return 1
		}
	}
	return 0
}

// Generator produces monotonically increasing IDs per process.
type Generator struct {
	mu       sync.Mutex
	now      func() int64
	lastMs   int64
	sequence uint64
}

// NewGenerator creates a Generator reading the wall clock.
func NewGenerator() *Generator {
	return NewGeneratorWithClock(func() int64 { return time.Now().UnixMilli() })
}

// NewGeneratorWithClock creates a Generator reading ms timestamps from now.
func NewGeneratorWithClock(now func() int64) *Generator {
	return &Generator{now: now}
}

// Next returns a new ID.
func (g *Generator) Next() ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now()
	if ms < g.lastMs {
		ms = g.lastMs
	}

	switch {
	case ms != g.lastMs:
		g.sequence = 0
	case g.sequence == math.MaxUint64:
		for ms <= g.lastMs {
			time.Sleep(time.Millisecond / 8)
			ms = g.now()
		}
		g.sequence = 0
	default:
		g.sequence++
	}

	g.lastMs = ms
	var out ID
	binary.BigEndian.PutUint64(out[0:8], uint64(ms))
	binary.BigEndian.PutUint64(out[8:16], g.sequence)
	return out
}

func trimLeadingZeros(b []byte) []byte {
	for len(b) > 1 && b[0] == 0 {
		b = b[1:]
	}
	return b
}
