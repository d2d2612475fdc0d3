package wrapper

import (
	"github.com/psantana5/ntlm-auth-wrap/internal/config"
	"github.com/psantana5/ntlm-auth-wrap/internal/logging"
	"github.com/psantana5/ntlm-auth-wrap/internal/observe"
	"github.com/psantana5/ntlm-auth-wrap/internal/spawn"
	"github.com/psantana5/ntlm-auth-wrap/internal/syslogsink"
)

// Execute is the whole shim: acquire the syslog handle, run once, release
// the handle, and return the exit code for os.Exit.
func Execute(cfg *config.Config, argv []string, log *logging.Logger) int {
	priority, err := cfg.Priority()
	if err != nil {
		log.Error(err.Error())
		return ExitLocalFailure
	}

	sink, err := syslogsink.OpenOrDiscard(priority, cfg.Tag)
	if err != nil {
		log.Debug("syslog unavailable, record will be dropped", map[string]interface{}{"error": err.Error()})
	}
	defer sink.Close()

	runner := &Runner{
		Config:  cfg,
		Spawner: &spawn.ForkExec{},
		Sink:    sink,
		Clock:   observe.Real(),
		Logger:  log,
	}
	return runner.Run(argv).ExitCode
}
