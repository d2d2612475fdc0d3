package spawn

// One child per invocation. No timeout, no retry, no signals.
// A hung child hangs the caller and that is intended.

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// Exit is a child's normalised termination.
type Exit struct {
	Code     int
	Signaled bool
	Signal   unix.Signal
}

// ExitFromWaitStatus extracts the exit status from a raw wait status.
// A child killed by a signal maps to 128+signal.
func ExitFromWaitStatus(ws unix.WaitStatus) Exit {
	switch {
	case ws.Exited():
		return Exit{Code: ws.ExitStatus()}
	case ws.Signaled():
		return Exit{Code: 128 + int(ws.Signal()), Signaled: true, Signal: ws.Signal()}
	default:
		return Exit{Code: ws.ExitStatus()}
	}
}

// Spawner creates and reaps exactly one child process.
type Spawner interface {
	// Spawn starts path with argv and env exactly as given.
	Spawn(path string, argv, env []string) (int, error)
	// Wait blocks until the child with that pid has terminated.
	Wait(pid int) (Exit, error)
}

// ForkExec is the real Spawner. The child inherits Stdin, Stdout and
// Stderr; nil means the wrapper's own.
type ForkExec struct {
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
}

// Spawn forks and execs. Exec failures are reported by the runtime through
// the error return, so no half-started child is left behind.
func (f *ForkExec) Spawn(path string, argv, env []string) (int, error) {
	attr := &syscall.ProcAttr{
		Env: env,
		Files: []uintptr{
			fd(f.Stdin, os.Stdin),
			fd(f.Stdout, os.Stdout),
			fd(f.Stderr, os.Stderr),
		},
	}

	pid, err := syscall.ForkExec(path, argv, attr)
	if err != nil {
		return 0, classify(path, err)
	}
	return pid, nil
}

// Wait reaps pid. Anything other than our own pid coming back is a mismatch.
func (f *ForkExec) Wait(pid int) (Exit, error) {
	for {
		var ws unix.WaitStatus
		wpid, err := unix.Wait4(pid, &ws, 0, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return Exit{}, &Error{Kind: KindWaitMismatch, PID: pid, Err: err}
		}
		if wpid != pid {
			return Exit{}, &Error{Kind: KindWaitMismatch, PID: pid, Err: fmt.Errorf("wait returned pid %d", wpid)}
		}
		return ExitFromWaitStatus(ws), nil
	}
}

// execErrnos are the errors execve reports for a target that cannot be
// loaded. Everything else is a process-creation failure.
var execErrnos = map[unix.Errno]bool{
	unix.ENOENT:       true,
	unix.EACCES:       true,
	unix.EPERM:        true,
	unix.ENOEXEC:      true,
	unix.ENOTDIR:      true,
	unix.ELOOP:        true,
	unix.ETXTBSY:      true,
	unix.EISDIR:       true,
	unix.E2BIG:        true,
	unix.ENAMETOOLONG: true,
}

func classify(path string, err error) error {
	var errno unix.Errno
	if errors.As(err, &errno) && execErrnos[errno] {
		return &Error{Kind: KindProgramReplacement, Path: path, Err: err}
	}
	return &Error{Kind: KindProcessCreation, Path: path, Err: err}
}

func fd(f, fallback *os.File) uintptr {
	if f == nil {
		f = fallback
	}
	return f.Fd()
}
