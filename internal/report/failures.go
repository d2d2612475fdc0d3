package report

import (
	"encoding/json"
	"sync"
)

// FailureSample is one wrapper-side failure kept for debugging.
// The command line is the redacted one.
type FailureSample struct {
	Command   string  `json:"command"`
	Reason    string  `json:"reason"`
	ElapsedMS float64 `json:"elapsed_ms"`
	ExitCode  int     `json:"exit_code"`
	PID       int     `json:"pid"`
}

// FailureLog keeps the last N wrapper failures (ring buffer).
type FailureLog struct {
	samples []FailureSample
	maxSize int
	mu      sync.RWMutex
}

// NewFailureLog creates a failure log with fixed size
func NewFailureLog(maxSize int) *FailureLog {
	return &FailureLog{
		samples: make([]FailureSample, 0, maxSize),
		maxSize: maxSize,
	}
}

// Record adds r if the wrapper failed. Child exit codes are not failures.
func (f *FailureLog) Record(r *Result) {
	if !r.Failed() {
		return
	}

	sample := FailureSample{
		Command:   r.Logged,
		Reason:    r.Failure.String(),
		ElapsedMS: r.ElapsedMS,
		ExitCode:  r.ExitCode,
		PID:       r.PID,
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.maxSize <= 0 {
		return
	}
	if len(f.samples) >= f.maxSize {
		f.samples = f.samples[1:]
	}
	f.samples = append(f.samples, sample)
}

// GetRecent returns recent failures (newest first)
func (f *FailureLog) GetRecent(n int) []FailureSample {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if n <= 0 || n > len(f.samples) {
		n = len(f.samples)
	}

	result := make([]FailureSample, n)
	for i := 0; i < n; i++ {
		result[i] = f.samples[len(f.samples)-1-i]
	}
	return result
}

// Count returns how many failures are held.
func (f *FailureLog) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.samples)
}

// JSON renders the recent failures, newest first.
func (f *FailureLog) JSON(n int) ([]byte, error) {
	return json.MarshalIndent(f.GetRecent(n), "", "  ")
}
