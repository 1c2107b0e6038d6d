package testutil

import (
	"strconv"
	"sync/atomic"
	"time"
)

// CaptureEpoch is the instant FixedClock starts at, in Unix milliseconds.
// Entry timestamps written by a test history start here.
const CaptureEpoch int64 = 1705314600000 // 2024-01-15 10:30:00 UTC

// StubClock is a clip.Clock that only moves when told to. It keeps
// millisecond resolution, the same as stored entry timestamps.
type StubClock struct {
	ms atomic.Int64
}

// FixedClock returns a StubClock reading CaptureEpoch.
func FixedClock() *StubClock {
	c := &StubClock{}
	c.ms.Store(CaptureEpoch)
	return c
}

// Now returns the current stub time in UTC.
func (c *StubClock) Now() time.Time {
	return time.UnixMilli(c.ms.Load()).UTC()
}

// Advance moves the clock forward by d, truncated to whole milliseconds.
func (c *StubClock) Advance(d time.Duration) {
	c.ms.Add(d.Milliseconds())
}

// StubIDGenerator is a clip.IDGenerator handing out "id-1", "id-2", ...
// so tests can name entries by insertion order.
type StubIDGenerator struct {
	n atomic.Int64
}

func NewStubIDGenerator() *StubIDGenerator {
	return &StubIDGenerator{}
}

func (g *StubIDGenerator) New() string {
	return "id-" + strconv.FormatInt(g.n.Add(1), 10)
}
