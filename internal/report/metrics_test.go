package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psantana5/ntlm-auth-wrap/internal/spawn"
)

func TestMetricsExport(t *testing.T) {
	m := NewMetrics()

	m.RecordResult(&Result{ElapsedMS: 3, StatusKnown: true})
	m.RecordResult(&Result{ElapsedMS: 60, ExitCode: 7, StatusKnown: true})
	m.RecordResult(&Result{ExitCode: 1, Failure: spawn.KindProcessCreation})

	out, err := m.PrometheusExport()
	require.NoError(t, err)

	assert.Contains(t, out, `authwrap_invocations_total{outcome="exit_zero"} 1`)
	assert.Contains(t, out, `authwrap_invocations_total{outcome="exit_non_zero"} 1`)
	assert.Contains(t, out, `authwrap_invocations_total{outcome="process_creation_failed"} 1`)
	assert.Contains(t, out, `authwrap_exit_codes_total{code="1"} 1`)
	assert.Contains(t, out, "authwrap_elapsed_milliseconds_count 2")
	assert.True(t, strings.HasPrefix(out, "# HELP"))
}

func TestFailureLogKeepsNewestFirst(t *testing.T) {
	log := NewFailureLog(2)

	log.Record(&Result{Logged: "ok"})
	log.Record(&Result{Logged: "a", Failure: spawn.KindProgramReplacement, ExitCode: 1})
	log.Record(&Result{Logged: "b", Failure: spawn.KindWaitMismatch, ExitCode: 1})
	log.Record(&Result{Logged: "c", Failure: spawn.KindWaitMismatch, ExitCode: 1})

	require.Equal(t, 2, log.Count())
	recent := log.GetRecent(0)
	assert.Equal(t, "c", recent[0].Command)
	assert.Equal(t, "b", recent[1].Command)
	assert.Equal(t, "wait_mismatch", recent[0].Reason)

	data, err := log.JSON(1)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"command": "c"`)
	assert.NotContains(t, string(data), `"command": "b"`)
}
