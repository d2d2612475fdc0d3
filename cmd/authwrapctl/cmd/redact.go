package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/psantana5/ntlm-auth-wrap/internal/redact"
)

var redactCmd = &cobra.Command{
	Use:   "redact -- <helper arguments...>",
	Short: "Preview the syslog command line for an argument list",
	Long: `Prints the command line ntlm-auth-wrap would log for the given helper
arguments. Any argument starting with --password or --challenge is dropped,
including look-alikes such as --passwordXYZ. The result is cut at 1023 bytes.

Example:
  authwrapctl redact -- --request-nt-key --username=bob --password=secret`,
	RunE: runRedact,
}

func init() {
	rootCmd.AddCommand(redactCmd)
}

type redactPreview struct {
	Logged    string `json:"logged"`
	LoggedLen int    `json:"logged_bytes"`
	FullLen   int    `json:"full_bytes"`
	Truncated bool   `json:"truncated"`
	Redacted  []int  `json:"redacted_positions"`
	Limit     int    `json:"limit"`
	Target    string `json:"target"`
	Arguments int    `json:"arguments"`
}

func runRedact(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	line := redact.Build(cfg.Target, args)
	preview := redactPreview{
		Logged:    line.Logged,
		LoggedLen: len(line.Logged),
		FullLen:   len(line.Full),
		Truncated: line.Truncated,
		Redacted:  []int{},
		Limit:     redact.MaxLength,
		Target:    cfg.Target,
		Arguments: len(args),
	}
	for i, arg := range args {
		if redact.IsSensitive(arg) {
			preview.Redacted = append(preview.Redacted, i+1)
		}
	}

	if IsJSONOutput() {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(preview)
	}

	fmt.Fprintln(cmd.OutOrStdout(), preview.Logged)

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("Property", "Value")
	table.Append([]string{"Arguments", strconv.Itoa(preview.Arguments)})
	table.Append([]string{"Redacted positions", fmt.Sprint(preview.Redacted)})
	table.Append([]string{"Logged bytes", fmt.Sprintf("%d / %d", preview.LoggedLen, preview.Limit)})
	table.Append([]string{"Truncated", strconv.FormatBool(preview.Truncated)})
	table.Render()
	return nil
}
