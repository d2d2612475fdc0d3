package observe

// Wall clock only. A backward clock step gives a negative elapsed time
// and that is what gets logged.

import "time"

// Timing records start/end timestamps around one child process.
type Timing struct {
	StartedAt   time.Time
	CompletedAt time.Time

	clock Clock
}

// NewTiming creates a timing that reads from clock.
// It does not start it.
func NewTiming(clock Clock) *Timing {
	if clock == nil {
		clock = Real()
	}
	return &Timing{clock: clock}
}

// Start records the start time. Call immediately before spawning.
func (t *Timing) Start() {
	t.StartedAt = t.clock.Now().Round(0)
}

// Complete records completion time. Call immediately after the wait returns.
func (t *Timing) Complete() {
	t.CompletedAt = t.clock.Now().Round(0)
}

// ElapsedMillis returns the elapsed wall-clock time in milliseconds
// at microsecond resolution:
//
//	(end_sec - start_sec) * 1000 + (end_usec - start_usec) / 1000
func (t *Timing) ElapsedMillis() float64 {
	end := t.CompletedAt
	if end.IsZero() {
		end = t.clock.Now().Round(0)
	}

	ms := float64(end.Unix()-t.StartedAt.Unix()) * 1000.0
	ms += float64(usec(end)-usec(t.StartedAt)) / 1000.0
	return ms
}

func usec(ts time.Time) int64 {
	return int64(ts.Nanosecond() / 1000)
}
