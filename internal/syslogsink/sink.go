package syslogsink

// Acquire once at start, Close once at exit. One Info per invocation.

import (
	"fmt"
	"log/syslog"
	"sync"
)

// Sink receives the invocation record.
type Sink interface {
	Info(msg string) error
	Close() error
}

// Open connects to the local syslog daemon. Every record carries tag and
// the wrapper's pid.
func Open(priority syslog.Priority, tag string) (Sink, error) {
	return Dial("", "", priority, tag)
}

// Dial connects to the syslog daemon at raddr over network. Empty network
// and raddr mean the local daemon.
func Dial(network, raddr string, priority syslog.Priority, tag string) (Sink, error) {
	w, err := syslog.Dial(network, raddr, priority, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to open syslog (%s): %w", tag, err)
	}
	return w, nil
}

// OpenOrDiscard is Open, except an unreachable daemon yields a Discard sink
// and the error for the caller to report. syslog(3) drops records silently
// in the same situation.
func OpenOrDiscard(priority syslog.Priority, tag string) (Sink, error) {
	s, err := Open(priority, tag)
	if err != nil {
		return Discard{}, err
	}
	return s, nil
}

// Discard drops every record.
type Discard struct{}

func (Discard) Info(string) error { return nil }
func (Discard) Close() error      { return nil }

// Memory keeps records in memory. Used by bench and tests.
type Memory struct {
	mu      sync.Mutex
	records []string
	closed  bool
}

func (m *Memory) Info(msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("sink closed")
	}
	m.records = append(m.records, msg)
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Records returns a copy of what was written.
func (m *Memory) Records() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.records...)
}
