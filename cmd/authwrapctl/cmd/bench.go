package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/spf13/cobra"

	"github.com/psantana5/ntlm-auth-wrap/internal/observe"
	"github.com/psantana5/ntlm-auth-wrap/internal/report"
	"github.com/psantana5/ntlm-auth-wrap/internal/spawn"
	"github.com/psantana5/ntlm-auth-wrap/internal/syslogsink"
	"github.com/psantana5/ntlm-auth-wrap/internal/wrapper"
)

var (
	benchCount      int
	benchPrometheus bool
	benchShowOutput bool
	benchFailures   int
)

var benchCmd = &cobra.Command{
	Use:   "bench [flags] -- <helper arguments...>",
	Short: "Run the wrapped helper repeatedly and report latency",
	Long: `Runs the same sequence as ntlm-auth-wrap (redact, spawn, wait, time) against
the configured target several times in a row. Records are kept in memory, not
sent to syslog. Runs are sequential: each invocation is one process, as in
production.

Example:
  authwrapctl bench -n 50 -- --request-nt-key --username=bob --password=secret
  authwrapctl bench --variant strict --prometheus -- --help`,
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)

	benchCmd.Flags().IntVarP(&benchCount, "count", "n", 10, "number of invocations")
	benchCmd.Flags().BoolVar(&benchPrometheus, "prometheus", false, "print Prometheus text exposition instead of a table")
	benchCmd.Flags().BoolVar(&benchShowOutput, "show-output", false, "pass the helper's stdout/stderr through")
	benchCmd.Flags().IntVar(&benchFailures, "failures", 10, "number of recent wrapper failures to show")
}

type benchReport struct {
	Target    string                 `json:"target"`
	Strict    bool                   `json:"strict"`
	Latency   report.Summary         `json:"latency"`
	ExitCodes map[string]int         `json:"exit_codes"`
	LastLine  string                 `json:"last_record"`
	Failures  []report.FailureSample `json:"failures"`
	Host      hostContext            `json:"host"`
}

type hostContext struct {
	LogicalCPUs    int    `json:"logical_cpus"`
	AvailableBytes uint64 `json:"available_memory_bytes"`
}

func runBench(cmd *cobra.Command, args []string) error {
	if benchCount <= 0 {
		return fmt.Errorf("count must be positive, got %d", benchCount)
	}

	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	log := newLogger().WithField("target", cfg.Target)

	sp := &spawn.ForkExec{}
	if !benchShowOutput {
		devnull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", os.DevNull, err)
		}
		defer devnull.Close()
		sp.Stdout = devnull
		sp.Stderr = devnull
	}

	sink := &syslogsink.Memory{}
	defer sink.Close()

	runner := &wrapper.Runner{
		Config:  cfg,
		Spawner: sp,
		Sink:    sink,
		Clock:   observe.Real(),
		Logger:  log,
	}

	metrics := report.NewMetrics()
	failures := report.NewFailureLog(benchFailures)
	exitCodes := make(map[string]int)
	elapsed := make([]float64, 0, benchCount)

	argv := append([]string{"ntlm-auth-wrap"}, args...)
	for i := 0; i < benchCount; i++ {
		result := runner.Run(argv)

		metrics.RecordResult(result)
		failures.Record(result)
		exitCodes[strconv.Itoa(result.ExitCode)]++
		if result.Failure != spawn.KindProcessCreation {
			elapsed = append(elapsed, result.ElapsedMS)
		}
	}
	log.Info("bench finished", map[string]interface{}{"runs": benchCount, "failures": failures.Count()})

	if benchPrometheus {
		text, err := metrics.PrometheusExport()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	}

	rep := benchReport{
		Target:    cfg.Target,
		Strict:    cfg.Strict,
		Latency:   report.Summarize(elapsed),
		ExitCodes: exitCodes,
		Failures:  failures.GetRecent(0),
		Host:      hostInfo(),
	}
	if records := sink.Records(); len(records) > 0 {
		rep.LastLine = records[len(records)-1]
	}

	if IsJSONOutput() {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("Metric", "Value")
	table.Append([]string{"Target", rep.Target})
	table.Append([]string{"Strict", strconv.FormatBool(rep.Strict)})
	table.Append([]string{"Invocations", strconv.Itoa(benchCount)})
	table.Append([]string{"Min", fmt.Sprintf("%.3f ms", rep.Latency.Min)})
	table.Append([]string{"Mean", fmt.Sprintf("%.3f ms", rep.Latency.Mean)})
	table.Append([]string{"P50", fmt.Sprintf("%.3f ms", rep.Latency.P50)})
	table.Append([]string{"P95", fmt.Sprintf("%.3f ms", rep.Latency.P95)})
	table.Append([]string{"Max", fmt.Sprintf("%.3f ms", rep.Latency.Max)})

	codes := make([]string, 0, len(exitCodes))
	for code := range exitCodes {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		table.Append([]string{"Exit " + code, strconv.Itoa(exitCodes[code])})
	}

	table.Append([]string{"Logical CPUs", strconv.Itoa(rep.Host.LogicalCPUs)})
	table.Append([]string{"Available RAM", fmt.Sprintf("%.2f GB", float64(rep.Host.AvailableBytes)/(1024*1024*1024))})
	table.Render()

	if rep.LastLine != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "last record: %s\n", rep.LastLine)
	}
	if failures.Count() > 0 {
		data, err := failures.JSON(0)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "recent wrapper failures:\n%s\n", data)
	}
	return nil
}

// hostInfo is best effort: zero values when gopsutil cannot read the host.
func hostInfo() hostContext {
	var h hostContext
	if n, err := cpu.Counts(true); err == nil {
		h.LogicalCPUs = n
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		h.AvailableBytes = vm.Available
	}
	return h
}
