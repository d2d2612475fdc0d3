package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/psantana5/ntlm-auth-wrap/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration inspection",
	Long:  `Commands for showing the resolved wrapper configuration and the built-in variants.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Resolves the configuration exactly as ntlm-auth-wrap does: variant preset,
then config file, then AUTHWRAP_* environment overrides.`,
	RunE: runConfigShow,
}

var configVariantsCmd = &cobra.Command{
	Use:   "variants",
	Short: "List the built-in variants",
	RunE:  runConfigVariants,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configVariantsCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	switch {
	case IsJSONOutput():
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	case IsYAMLOutput():
		data, err := cfg.YAML()
		if err != nil {
			return fmt.Errorf("failed to render config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("Setting", "Value")
	table.Append([]string{"Target", cfg.Target})
	table.Append([]string{"Facility", cfg.Facility})
	table.Append([]string{"Tag", cfg.Tag})
	table.Append([]string{"Strict", strconv.FormatBool(cfg.Strict)})
	table.Append([]string{"Log level", cfg.LogLevel})
	table.Append([]string{"Build default variant", config.DefaultVariant})
	table.Render()
	return nil
}

func runConfigVariants(cmd *cobra.Command, args []string) error {
	variants := map[string]*config.Config{
		config.VariantLenient: config.Lenient(),
		config.VariantStrict:  config.Strict(),
	}

	if IsJSONOutput() {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(variants)
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("Variant", "Target", "Facility", "Tag", "Record")
	for _, name := range []string{config.VariantLenient, config.VariantStrict} {
		c := variants[name]
		record := "<cmd> time: <ms> ms"
		if c.Strict {
			record += ", status: <code>"
		}
		table.Append([]string{name, c.Target, c.Facility, c.Tag, record})
	}
	table.Render()

	fmt.Fprintf(cmd.OutOrStdout(), "facilities: %s\n", strings.Join(config.FacilityNames(), ", "))
	return nil
}
