package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/psantana5/ntlm-auth-wrap/internal/config"
	"github.com/psantana5/ntlm-auth-wrap/internal/logging"
	"github.com/psantana5/ntlm-auth-wrap/internal/wrapper"
)

const component = "ntlm-auth-wrap"

var exitCode int

// rootCmd takes no flags of its own: every argument belongs to the helper.
var rootCmd = &cobra.Command{
	Use:   "ntlm-auth-wrap [helper arguments...]",
	Short: "Log and time ntlm_auth invocations",
	Long: `ntlm-auth-wrap runs the configured authentication helper with exactly the
arguments and environment it was given, then writes one line to syslog
(tag radius-debug) with the command line minus --password/--challenge and
the elapsed time. It exits with the helper's exit status.

Configuration comes from the environment only, since argv is forwarded:
  AUTHWRAP_VARIANT   lenient | strict
  AUTHWRAP_CONFIG    YAML config file (default /etc/ntlm-auth-wrap/config.yaml)
  AUTHWRAP_TARGET    helper path
  AUTHWRAP_FACILITY  syslog facility, e.g. local4
  AUTHWRAP_STRICT    true | false
  AUTHWRAP_LOG_LEVEL stderr diagnostics level`,
	Args:               cobra.ArbitraryArgs,
	DisableFlagParsing: true,
	SilenceErrors:      true,
	SilenceUsage:       true,
	CompletionOptions:  cobra.CompletionOptions{DisableDefaultCmd: true},
	RunE:               runShim,
}

// Execute runs the shim and returns the process exit code.
func Execute() int {
	return execute(os.Args[1:])
}

// execute hands args straight to runShim. rootCmd.Execute would still
// route __complete and __completeNoDesc to cobra's completion command, and
// those belong to the helper like every other argument.
func execute(args []string) int {
	if err := rootCmd.RunE(rootCmd, args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", component, err)
		return wrapper.ExitLocalFailure
	}
	return exitCode
}

func runShim(cmd *cobra.Command, args []string) error {
	v := viper.New()
	if err := config.BindEnv(v); err != nil {
		return err
	}

	cfg, err := config.Resolve(v)
	if err != nil {
		return err
	}

	log := logging.NewLogger(component, logging.ParseLevel(cfg.LogLevel), false)

	argv := make([]string, 0, len(args)+1)
	argv = append(argv, os.Args[0])
	argv = append(argv, args...)

	exitCode = wrapper.Execute(cfg, argv, log)
	return nil
}
