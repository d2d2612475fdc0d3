package wrapper

// If we are unsure, DO LESS.
// The child gets the original argv and env, untouched.
// One record per invocation. No retries. No timeout.

import (
	"os"

	"github.com/psantana5/ntlm-auth-wrap/internal/config"
	"github.com/psantana5/ntlm-auth-wrap/internal/logging"
	"github.com/psantana5/ntlm-auth-wrap/internal/observe"
	"github.com/psantana5/ntlm-auth-wrap/internal/redact"
	"github.com/psantana5/ntlm-auth-wrap/internal/report"
	"github.com/psantana5/ntlm-auth-wrap/internal/spawn"
	"github.com/psantana5/ntlm-auth-wrap/internal/syslogsink"
)

const (
	// ExitLocalFailure is returned when the wrapper itself fails.
	ExitLocalFailure = 1
	// ExitExecFailedLenient is what a lenient wrapper returns when the
	// target could not be executed.
	ExitExecFailedLenient = 127
)

// Runner runs one wrapped invocation.
type Runner struct {
	Config  *config.Config
	Spawner spawn.Spawner
	Sink    syslogsink.Sink
	Clock   observe.Clock
	Logger  *logging.Logger
	// Environ supplies the child's environment. Nil means os.Environ.
	Environ func() []string
}

// Run executes the target with argv[1:] and returns the result. argv[0] is
// the wrapper's own path and is replaced by the configured target.
func (r *Runner) Run(argv []string) *report.Result {
	cfg := r.Config
	log := r.logger()

	var args []string
	if len(argv) > 1 {
		args = argv[1:]
	}

	line := redact.Build(cfg.Target, args)

	childArgv := make([]string, 0, len(args)+1)
	childArgv = append(childArgv, cfg.Target)
	childArgv = append(childArgv, args...)

	env := os.Environ
	if r.Environ != nil {
		env = r.Environ
	}

	timing := observe.NewTiming(r.Clock)
	timing.Start()

	result := &report.Result{Logged: line.Logged}

	pid, err := r.Spawner.Spawn(cfg.Target, childArgv, env())
	if err != nil {
		timing.Complete()
		return r.spawnFailed(result, timing, err)
	}
	result.PID = pid

	exit, err := r.Spawner.Wait(pid)
	timing.Complete()
	finish(result, timing)

	if err != nil {
		result.Failure = spawn.KindWaitMismatch
		result.ExitCode = ExitLocalFailure
		log.Error(err.Error(), map[string]interface{}{"pid": pid})
		if cfg.Strict {
			return result
		}
		r.emit(result)
		return result
	}

	result.ExitCode = exit.Code
	result.StatusKnown = true
	if exit.Signaled {
		log.Debug("target killed by signal", map[string]interface{}{"pid": pid, "signal": exit.Signal.String()})
	}

	r.emit(result)
	return result
}

func (r *Runner) spawnFailed(result *report.Result, timing *observe.Timing, err error) *report.Result {
	log := r.logger()
	finish(result, timing)

	kind := spawn.KindOf(err)
	if kind == 0 {
		kind = spawn.KindProcessCreation
	}
	result.Failure = kind

	switch {
	case kind == spawn.KindProgramReplacement && r.Config.Strict:
		log.Error(err.Error())
		result.ExitCode = ExitLocalFailure
		result.StatusKnown = true
		r.emit(result)

	case kind == spawn.KindProgramReplacement:
		log.Debug(err.Error())
		result.ExitCode = ExitExecFailedLenient
		result.StatusKnown = true
		r.emit(result)

	default:
		// No child ever existed: no record.
		log.Error(err.Error())
		result.ExitCode = ExitLocalFailure
	}
	return result
}

func (r *Runner) emit(result *report.Result) {
	if r.Sink == nil {
		return
	}
	if err := r.Sink.Info(result.Record(r.Config.Strict)); err != nil {
		r.logger().Debug("failed to write syslog record", map[string]interface{}{"error": err.Error()})
	}
}

func (r *Runner) logger() *logging.Logger {
	if r.Logger == nil {
		return logging.Discard()
	}
	return r.Logger
}

func finish(result *report.Result, timing *observe.Timing) {
	result.StartTime = timing.StartedAt
	result.EndTime = timing.CompletedAt
	result.ElapsedMS = timing.ElapsedMillis()
}
