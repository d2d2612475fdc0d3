package report

// The record format is a contract with whoever greps radius-debug.
// Do not reword it.

import (
	"fmt"
	"time"

	"github.com/psantana5/ntlm-auth-wrap/internal/spawn"
)

// Result is immutable invocation truth. Set once, never change.
type Result struct {
	// Logged is the redacted command line. Never the full one.
	Logged string `json:"command"`
	PID    int    `json:"pid"`

	// Timing (immutable)
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	ElapsedMS float64   `json:"elapsed_ms"`

	// Outcome (immutable)
	ExitCode    int        `json:"exit_code"`
	StatusKnown bool       `json:"status_known"`
	Failure     spawn.Kind `json:"failure,omitempty"`
}

// Failed reports whether the wrapper itself failed, as opposed to the child.
func (r *Result) Failed() bool {
	return r.Failure != 0
}

// Record renders the syslog line:
//
//	<logged> time: <elapsed> ms[, status: <code>]
//
// Elapsed uses %.6g, which prints like C's %g.
func (r *Result) Record(includeStatus bool) string {
	if includeStatus {
		return fmt.Sprintf("%s time: %.6g ms, status: %d", r.Logged, r.ElapsedMS, r.ExitCode)
	}
	return fmt.Sprintf("%s time: %.6g ms", r.Logged, r.ElapsedMS)
}

// Outcome is a low-cardinality label for metrics.
func (r *Result) Outcome() string {
	switch {
	case r.Failed():
		return r.Failure.String()
	case r.ExitCode == 0:
		return "exit_zero"
	default:
		return "exit_non_zero"
	}
}
