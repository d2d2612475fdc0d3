package spawn

import (
	"errors"
	"fmt"
)

// Kind classifies why an invocation could not produce a normal child exit.
type Kind int

const (
	// KindProcessCreation: fork itself failed (resources, OS refusal).
	KindProcessCreation Kind = iota + 1
	// KindProgramReplacement: the child could not exec the target.
	KindProgramReplacement
	// KindWaitMismatch: waiting did not return our child's status.
	KindWaitMismatch
)

func (k Kind) String() string {
	switch k {
	case KindProcessCreation:
		return "process_creation_failed"
	case KindProgramReplacement:
		return "program_replacement_failed"
	case KindWaitMismatch:
		return "wait_mismatch"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is.
var (
	ErrProcessCreationFailed    = errors.New("process creation failed")
	ErrProgramReplacementFailed = errors.New("program replacement failed")
	ErrWaitMismatch             = errors.New("wait mismatch")
)

func (k Kind) sentinel() error {
	switch k {
	case KindProcessCreation:
		return ErrProcessCreationFailed
	case KindProgramReplacement:
		return ErrProgramReplacementFailed
	case KindWaitMismatch:
		return ErrWaitMismatch
	default:
		return nil
	}
}

// Error is a classified spawn/wait failure. None of them are retried.
type Error struct {
	Kind Kind
	Path string
	PID  int
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindWaitMismatch:
		return fmt.Sprintf("wait error: pid %d: %v", e.PID, e.Err)
	case KindProgramReplacement:
		return fmt.Sprintf("exec error: %s: %v", e.Path, e.Err)
	default:
		return fmt.Sprintf("fork error: %s: %v", e.Path, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the Kind of err, or 0 if err is not a spawn error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}
