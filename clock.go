package hudp

import "time"

// clock provides the monotonic millisecond timebase used for packet
// timestamps, RTT sampling and timer scheduling. Values wrap at 2^32 ms
// (~49.7 days); a transport is not expected to run continuously past that.
type clock struct {
	start time.Time
}

func newClock() *clock {
	return &clock{start: time.Now()}
}

func (c *clock) nowMs() uint32 {
	return uint32(time.Since(c.start).Milliseconds())
}

// diffMs computes a-b as an elapsed duration in milliseconds, tolerant of
// uint32 wraparound for any interval shorter than ~24 days.
func diffMs(a, b uint32) int64 {
	return int64(int32(a - b))
}
