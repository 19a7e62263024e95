//go:build unix

package execution

import (
	"CodeCollab/models"
	"context"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompiler stands in for g++: it rejects sources containing "syntax error"
// and otherwise turns the source into a shell script at the -o path.
const fakeCompiler = `#!/bin/sh
if grep -q "syntax error" "$1"; then
	echo "main.cpp:1:1: error: expected ';' before '}' token" >&2
	exit 1
fi
{ echo '#!/bin/sh'; cat "$1"; } > "$3"
chmod +x "$3"
`

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	compiler := filepath.Join(dir, "fakecc")
	require.NoError(t, os.WriteFile(compiler, []byte(fakeCompiler), 0o755))

	cfg := DefaultConfig()
	cfg.CompilerPath = compiler
	cfg.WorkspaceRoot = t.TempDir()
	cfg.CompileTimeout = 5 * time.Second
	cfg.RunTimeout = 10 * time.Second
	return cfg
}

// collect drains out until it is closed
func collect(t *testing.T, out <-chan models.ExecOutput) []models.ExecOutput {
	t.Helper()
	var events []models.ExecOutput
	timeout := time.After(15 * time.Second)
	for {
		select {
		case ev, ok := <-out:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("output channel not closed, got %v", events)
		}
	}
}

func joined(events []models.ExecOutput) string {
	var b strings.Builder
	for _, ev := range events {
		b.WriteString(ev.Output)
	}
	return b.String()
}

func assertNoRuns(t *testing.T, m *Manager) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Empty(t, m.entries, "finished run still registered")
}

func assertNoWorkspaces(t *testing.T, cfg Config) {
	t.Helper()
	entries, err := os.ReadDir(cfg.WorkspaceRoot)
	require.NoError(t, err)
	assert.Empty(t, entries, "workspace left behind")
}

func TestUnsupportedLanguageFailsFast(t *testing.T) {
	cfg := testConfig(t)
	m := NewManager(cfg)

	events := collect(t, m.Execute(context.Background(), "conn-1", "python", "print(1)"))

	require.Len(t, events, 1)
	assert.True(t, events[0].IsError)
	assert.Equal(t, "Only C++ is supported.", events[0].Output)
	assertNoWorkspaces(t, cfg)
	assertNoRuns(t, m)
}

func TestWorkspaceFailureReleasesRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.WorkspaceRoot = filepath.Join(t.TempDir(), "missing")
	m := NewManager(cfg)

	events := collect(t, m.Execute(context.Background(), "conn-1", "cpp", "echo hi"))

	require.Len(t, events, 1)
	assert.True(t, events[0].IsError)
	assert.Contains(t, events[0].Output, "creating workspace")
	assertNoRuns(t, m)
}

func TestCompileFailureIsSingleErrorEvent(t *testing.T) {
	cfg := testConfig(t)
	m := NewManager(cfg)

	events := collect(t, m.Execute(context.Background(), "conn-1", "cpp", "syntax error"))

	require.Len(t, events, 1)
	assert.True(t, events[0].IsError)
	assert.Contains(t, events[0].Output, "expected ';'")
	assertNoWorkspaces(t, cfg)
	_, attached := m.Session("conn-1")
	assert.False(t, attached)
}

func TestRunStreamsOutputAndExitCode(t *testing.T) {
	cfg := testConfig(t)
	m := NewManager(cfg)

	events := collect(t, m.Execute(context.Background(), "conn-1", "CPP", "echo out\necho err >&2\nexit 3"))

	var stdout, stderr string
	for _, ev := range events {
		if ev.IsError {
			stderr += ev.Output
		} else {
			stdout += ev.Output
		}
	}
	assert.Contains(t, stdout, "out\n")
	assert.Equal(t, "err\n", stderr)
	assert.Equal(t, "\nProcess finished with exit code 3", events[len(events)-1].Output)
	assertNoWorkspaces(t, cfg)
}

func TestForwardInputReachesProcess(t *testing.T) {
	cfg := testConfig(t)
	m := NewManager(cfg)

	out := m.Execute(context.Background(), "conn-1", "cpp", `read line; echo "got $line"`)
	require.Eventually(t, func() bool {
		_, ok := m.Session("conn-1")
		return ok
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, m.ForwardInput("conn-1", "hi"))

	events := collect(t, out)
	assert.Contains(t, joined(events), "got hi")
	assert.Equal(t, "\nProcess finished with exit code 0", events[len(events)-1].Output)

	// the run is over, late input is dropped
	assert.NoError(t, m.ForwardInput("conn-1", "late"))
}

func TestDetachMidRunKillsProcess(t *testing.T) {
	cfg := testConfig(t)
	m := NewManager(cfg)

	out := m.Execute(context.Background(), "conn-1", "cpp", "echo started\nwhile true; do sleep 0.05; done")

	first := <-out
	require.Equal(t, "started\n", first.Output)
	session, ok := m.Session("conn-1")
	require.True(t, ok)
	pid := session.Pid()

	m.Detach("conn-1")

	events := collect(t, out)
	assert.Contains(t, joined(events), "Process finished with exit code 137")
	assert.ErrorIs(t, syscall.Kill(pid, 0), syscall.ESRCH)
	_, ok = m.Session("conn-1")
	assert.False(t, ok)
	assertNoWorkspaces(t, cfg)
}

func TestRunTimeoutKillsProcess(t *testing.T) {
	cfg := testConfig(t)
	cfg.RunTimeout = 300 * time.Millisecond
	m := NewManager(cfg)

	events := collect(t, m.Execute(context.Background(), "conn-1", "cpp", "sleep 30"))

	require.NotEmpty(t, events)
	assert.Contains(t, joined(events), "execution timed out")
	assertNoWorkspaces(t, cfg)
}

func TestNewRunReplacesPrevious(t *testing.T) {
	cfg := testConfig(t)
	m := NewManager(cfg)

	first := m.Execute(context.Background(), "conn-1", "cpp", "echo one\nsleep 30")
	require.Equal(t, "one\n", (<-first).Output)

	second := m.Execute(context.Background(), "conn-1", "cpp", "echo two")

	collect(t, first)
	events := collect(t, second)
	assert.Contains(t, joined(events), "two")
	assertNoWorkspaces(t, cfg)
}

func TestRunOnceFeedsInputAndCollects(t *testing.T) {
	cfg := testConfig(t)
	m := NewManager(cfg)

	res, err := m.RunOnce(context.Background(), "cpp", "while read line; do echo \"> $line\"; done", "a\nb\n")

	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, 0, res.ExitCode)
	assert.True(t, strings.HasPrefix(res.Output, "> a\n> b\n"), res.Output)
	assert.Contains(t, res.Output, "Process finished with exit code 0")

	assertNoRuns(t, m)
	assertNoWorkspaces(t, cfg)
}

func TestRunOnceReportsFailures(t *testing.T) {
	cfg := testConfig(t)
	m := NewManager(cfg)

	res, err := m.RunOnce(context.Background(), "cpp", "exit 2", "")
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, 2, res.ExitCode)

	res, err = m.RunOnce(context.Background(), "cpp", "syntax error", "")
	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.True(t, res.IsError)
	assert.Equal(t, -1, res.ExitCode)
	assert.Contains(t, res.Output, "expected ';'")
	assertNoRuns(t, m)
}

func TestRunOnceUnsupportedLanguageReleasesRun(t *testing.T) {
	cfg := testConfig(t)
	m := NewManager(cfg)

	for i := 0; i < 5; i++ {
		res, err := m.RunOnce(context.Background(), "python", "print(1)", "")
		var unsupported *UnsupportedLanguageError
		require.ErrorAs(t, err, &unsupported)
		assert.True(t, res.IsError)
	}
	assertNoRuns(t, m)
}
