package wrapper

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/psantana5/ntlm-auth-wrap/internal/config"
	"github.com/psantana5/ntlm-auth-wrap/internal/logging"
	"github.com/psantana5/ntlm-auth-wrap/internal/observe"
	"github.com/psantana5/ntlm-auth-wrap/internal/spawn"
	"github.com/psantana5/ntlm-auth-wrap/internal/syslogsink"
)

// fakeSpawner records what it was asked to run and replays canned results.
type fakeSpawner struct {
	clock    *observe.FakeClock
	runFor   time.Duration
	spawnErr error
	waitErr  error
	exit     spawn.Exit

	path string
	argv []string
	env  []string
}

func (f *fakeSpawner) Spawn(path string, argv, env []string) (int, error) {
	f.path, f.argv, f.env = path, argv, env
	if f.spawnErr != nil {
		return 0, f.spawnErr
	}
	return 4242, nil
}

func (f *fakeSpawner) Wait(pid int) (spawn.Exit, error) {
	if f.clock != nil {
		f.clock.Advance(f.runFor)
	}
	return f.exit, f.waitErr
}

func newRunner(cfg *config.Config, sp spawn.Spawner, clock observe.Clock) (*Runner, *syslogsink.Memory, *bytes.Buffer) {
	sink := &syslogsink.Memory{}
	var stderr bytes.Buffer
	log := logging.NewLogger("ntlm-auth-wrap", logging.ERROR, false)
	log.SetOutput(&stderr)

	return &Runner{
		Config:  cfg,
		Spawner: sp,
		Sink:    sink,
		Clock:   clock,
		Logger:  log,
		Environ: func() []string { return []string{"PATH=/usr/bin:/bin", "KRB5CCNAME=FILE:/tmp/cc"} },
	}, sink, &stderr
}

func TestRunForwardsOriginalArgsAndRedactsRecord(t *testing.T) {
	clock := observe.Fake(time.Unix(1700000000, 0))
	sp := &fakeSpawner{clock: clock, runFor: 12500 * time.Microsecond}
	runner, sink, stderr := newRunner(config.Lenient(), sp, clock)

	argv := []string{"/usr/sbin/ntlm_auth_wrap", "--request-nt-key", "--username=bob", "--challenge=0011", "--password=hunter2"}
	result := runner.Run(argv)

	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "/bin/echo", sp.path)
	assert.Equal(t, []string{"/bin/echo", "--request-nt-key", "--username=bob", "--challenge=0011", "--password=hunter2"}, sp.argv)
	assert.Equal(t, []string{"PATH=/usr/bin:/bin", "KRB5CCNAME=FILE:/tmp/cc"}, sp.env)

	assert.Equal(t, []string{"/bin/echo --request-nt-key --username=bob time: 12.5 ms"}, sink.Records())
	assert.Empty(t, stderr.String())
}

func TestRunDoesNotMutateArgv(t *testing.T) {
	sp := &fakeSpawner{}
	runner, _, _ := newRunner(config.Strict(), sp, nil)

	argv := []string{"wrapper", "--username=bob"}
	runner.Run(argv)

	assert.Equal(t, "wrapper", argv[0])
	assert.Equal(t, "/usr/bin/ntlm_auth", sp.argv[0])
}

func TestRunStrictRecordIncludesStatus(t *testing.T) {
	clock := observe.Fake(time.Unix(1700000000, 0))
	sp := &fakeSpawner{clock: clock, runFor: 3 * time.Millisecond, exit: spawn.Exit{Code: 7}}
	runner, sink, _ := newRunner(config.Strict(), sp, clock)

	result := runner.Run([]string{"wrapper", "--username=bob"})

	assert.Equal(t, 7, result.ExitCode)
	assert.True(t, result.StatusKnown)
	assert.Equal(t, []string{"/usr/bin/ntlm_auth --username=bob time: 3 ms, status: 7"}, sink.Records())
}

func TestRunProcessCreationFailed(t *testing.T) {
	for _, cfg := range []*config.Config{config.Lenient(), config.Strict()} {
		t.Run(strconv.FormatBool(cfg.Strict), func(t *testing.T) {
			sp := &fakeSpawner{spawnErr: &spawn.Error{Kind: spawn.KindProcessCreation, Path: cfg.Target, Err: unix.EAGAIN}}
			runner, sink, stderr := newRunner(cfg, sp, nil)

			result := runner.Run([]string{"wrapper", "--username=bob"})

			assert.Equal(t, ExitLocalFailure, result.ExitCode)
			assert.Equal(t, spawn.KindProcessCreation, result.Failure)
			assert.Empty(t, sink.Records(), "no record when no child was created")
			assert.Contains(t, stderr.String(), "fork error")
		})
	}
}

func TestRunUnclassifiedSpawnErrorIsProcessCreation(t *testing.T) {
	sp := &fakeSpawner{spawnErr: errors.New("boom")}
	runner, sink, _ := newRunner(config.Strict(), sp, nil)

	result := runner.Run([]string{"wrapper"})

	assert.Equal(t, spawn.KindProcessCreation, result.Failure)
	assert.Empty(t, sink.Records())
}

func TestRunProgramReplacementFailed(t *testing.T) {
	execErr := &spawn.Error{Kind: spawn.KindProgramReplacement, Path: "/missing", Err: unix.ENOENT}

	t.Run("strict", func(t *testing.T) {
		runner, sink, stderr := newRunner(config.Strict(), &fakeSpawner{spawnErr: execErr}, nil)

		result := runner.Run([]string{"wrapper", "--username=bob"})

		assert.Equal(t, ExitLocalFailure, result.ExitCode)
		assert.Contains(t, stderr.String(), "exec error")
		require.Len(t, sink.Records(), 1)
		assert.True(t, strings.HasSuffix(sink.Records()[0], ", status: 1"))
	})

	t.Run("lenient", func(t *testing.T) {
		runner, sink, stderr := newRunner(config.Lenient(), &fakeSpawner{spawnErr: execErr}, nil)

		result := runner.Run([]string{"wrapper", "--username=bob"})

		assert.Equal(t, ExitExecFailedLenient, result.ExitCode)
		assert.Empty(t, stderr.String(), "lenient exec failures are silent")
		require.Len(t, sink.Records(), 1)
		assert.NotContains(t, sink.Records()[0], "status:")
	})
}

func TestRunWaitMismatch(t *testing.T) {
	waitErr := &spawn.Error{Kind: spawn.KindWaitMismatch, PID: 4242, Err: unix.ECHILD}

	t.Run("strict aborts without record", func(t *testing.T) {
		runner, sink, stderr := newRunner(config.Strict(), &fakeSpawner{waitErr: waitErr}, nil)

		result := runner.Run([]string{"wrapper"})

		assert.Equal(t, ExitLocalFailure, result.ExitCode)
		assert.Equal(t, spawn.KindWaitMismatch, result.Failure)
		assert.False(t, result.StatusKnown)
		assert.Empty(t, sink.Records())
		assert.Contains(t, stderr.String(), "wait error")
	})

	t.Run("lenient reports and still logs", func(t *testing.T) {
		runner, sink, stderr := newRunner(config.Lenient(), &fakeSpawner{waitErr: waitErr}, nil)

		result := runner.Run([]string{"wrapper"})

		assert.Equal(t, ExitLocalFailure, result.ExitCode)
		assert.Len(t, sink.Records(), 1)
		assert.Contains(t, stderr.String(), "wait error")
	})
}

func TestRunNilSinkAndLogger(t *testing.T) {
	runner := &Runner{Config: config.Lenient(), Spawner: &fakeSpawner{exit: spawn.Exit{Code: 3}}}
	assert.Equal(t, 3, runner.Run([]string{"wrapper"}).ExitCode)
}

// Real processes from here on.

func shConfig(strict bool) *config.Config {
	cfg := config.Lenient()
	cfg.Target = "/bin/sh"
	cfg.Strict = strict
	return cfg
}

func TestRunRealChildExitCodePropagates(t *testing.T) {
	runner, sink, _ := newRunner(shConfig(true), &spawn.ForkExec{}, observe.Real())

	result := runner.Run([]string{"wrapper", "-c", "exit 7"})

	assert.Equal(t, 7, result.ExitCode)
	require.Len(t, sink.Records(), 1)
	assert.True(t, strings.HasPrefix(sink.Records()[0], "/bin/sh -c exit 7 time: "))
	assert.True(t, strings.HasSuffix(sink.Records()[0], " ms, status: 7"))
}

func TestRunRealElapsedCoversChildSleep(t *testing.T) {
	runner, _, _ := newRunner(shConfig(false), &spawn.ForkExec{}, observe.Real())

	result := runner.Run([]string{"wrapper", "-c", "sleep 0.05"})

	require.Equal(t, 0, result.ExitCode)
	assert.GreaterOrEqual(t, result.ElapsedMS, 45.0)
	assert.Less(t, result.ElapsedMS, 5000.0)
}

func readChildStdout(t *testing.T, cfg *config.Config, argv []string) (string, []string) {
	t.Helper()

	out, err := os.CreateTemp(t.TempDir(), "stdout")
	require.NoError(t, err)
	defer out.Close()

	runner, sink, _ := newRunner(cfg, &spawn.ForkExec{Stdout: out}, observe.Real())
	runner.Environ = func() []string { return []string{"NTLM_TEST=1"} }
	runner.Run(argv)

	got, err := os.ReadFile(out.Name())
	require.NoError(t, err)
	return string(got), sink.Records()
}

func TestRunRealChildSeesTargetAsArgv0(t *testing.T) {
	got, _ := readChildStdout(t, shConfig(false), []string{"/usr/sbin/wrapper", "-c", `printf '%s %s' "$0" "$NTLM_TEST"`})
	assert.Equal(t, "/bin/sh 1", got)
}

func TestRunRealChildReceivesSecrets(t *testing.T) {
	// "sh -c script name arg": $0 is name, $1 is arg.
	got, records := readChildStdout(t, shConfig(false), []string{"/usr/sbin/wrapper", "-c", `printf '%s' "$1"`, "sh", "--password=hunter2"})

	assert.Equal(t, "--password=hunter2", got)
	require.Len(t, records, 1)
	assert.NotContains(t, records[0], "hunter2")
	assert.True(t, strings.HasPrefix(records[0], "/bin/sh -c printf '%s' \"$1\" sh time: "))
}

func TestRunRealMissingTarget(t *testing.T) {
	cfg := config.Strict()
	cfg.Target = filepath.Join(t.TempDir(), "ntlm_auth")
	runner, sink, stderr := newRunner(cfg, &spawn.ForkExec{}, observe.Real())

	result := runner.Run([]string{"wrapper", "--username=bob"})

	assert.Equal(t, ExitLocalFailure, result.ExitCode)
	assert.Equal(t, spawn.KindProgramReplacement, result.Failure)
	assert.Contains(t, stderr.String(), "exec error")
	assert.Len(t, sink.Records(), 1)
}

func TestExecuteReturnsChildExitCode(t *testing.T) {
	cfg := shConfig(true)
	assert.Equal(t, 7, Execute(cfg, []string{"wrapper", "-c", "exit 7"}, logging.Discard()))
}

func TestExecuteRejectsBadFacility(t *testing.T) {
	cfg := shConfig(true)
	cfg.Facility = "local9"
	assert.Equal(t, ExitLocalFailure, Execute(cfg, []string{"wrapper"}, logging.Discard()))
}
