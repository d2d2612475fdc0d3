package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/psantana5/ntlm-auth-wrap/internal/config"
	"github.com/psantana5/ntlm-auth-wrap/internal/logging"
)

var (
	cfgFile      string
	variant      string
	outputFormat string
	logLevel     string

	v = viper.New()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "authwrapctl",
	Short: "Inspect and exercise ntlm-auth-wrap configuration",
	Long: `authwrapctl shows the configuration ntlm-auth-wrap would resolve, previews
how a given argument list is redacted in syslog, and benchmarks the wrapped
helper.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is "+config.DefaultPath+" if present)")
	rootCmd.PersistentFlags().StringVar(&variant, "variant", "", "variant preset: lenient or strict (default from build)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "table", "output format: table, json or yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "diagnostics level on stderr")
}

// initConfig binds AUTHWRAP_* and the persistent flags. Flags win over env.
func initConfig() {
	if err := config.BindEnv(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding environment: %v\n", err)
		os.Exit(1)
	}

	if cfgFile != "" {
		v.Set(config.KeyConfig, cfgFile)
	}
	if variant != "" {
		v.Set(config.KeyVariant, variant)
	}
}

// resolveConfig returns the configuration the shim would use here.
func resolveConfig() (*config.Config, error) {
	return config.Resolve(v)
}

func newLogger() *logging.Logger {
	return logging.NewLogger("authwrapctl", logging.ParseLevel(logLevel), outputFormat == "json")
}

// IsJSONOutput returns true if JSON output is requested
func IsJSONOutput() bool {
	return outputFormat == "json"
}

// IsYAMLOutput returns true if YAML output is requested
func IsYAMLOutput() bool {
	return outputFormat == "yaml"
}
