//go:build unix

package collab

import (
	"CodeCollab/models"
	"CodeCollab/services/broadcast"
	"CodeCollab/services/execution"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shellCompiler turns the source into a shell script at the -o path
const shellCompiler = `#!/bin/sh
{ echo '#!/bin/sh'; cat "$1"; } > "$3"
chmod +x "$3"
`

func shellExecConfig(t *testing.T) execution.Config {
	t.Helper()
	compiler := filepath.Join(t.TempDir(), "fakecc")
	require.NoError(t, os.WriteFile(compiler, []byte(shellCompiler), 0o755))

	cfg := execution.DefaultConfig()
	cfg.CompilerPath = compiler
	cfg.WorkspaceRoot = t.TempDir()
	cfg.CompileTimeout = 5 * time.Second
	cfg.RunTimeout = 10 * time.Second
	return cfg
}

func execOutputs(r *recorder, connID string) []models.ExecOutput {
	var out []models.ExecOutput
	for _, p := range r.on(broadcast.Exec(connID)) {
		out = append(out, p.(models.ExecOutput))
	}
	return out
}

func TestReplacedRunStopsPublishing(t *testing.T) {
	f := newFixtureWithExec(t, shellExecConfig(t))
	alice := f.connect(t, "c-alice", "alice")

	f.svc.RunCode("c-alice", "cpp", "echo one\nsleep 30")
	first := alice.waitOn(t, broadcast.Exec("c-alice"), 1)[0].(models.ExecOutput)
	require.Equal(t, "one\n", first.Output)

	f.svc.RunCode("c-alice", "cpp", "echo two")
	require.Eventually(t, func() bool {
		for _, ev := range execOutputs(alice, "c-alice") {
			if strings.Contains(ev.Output, "Process finished with exit code 0") {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	events := execOutputs(alice, "c-alice")
	assert.Equal(t, first, events[0])
	for _, ev := range events[1:] {
		assert.NotEqual(t, first.RunID, ev.RunID, "output of the replaced run: %q", ev.Output)
	}
	assert.Contains(t, events[1].Output, "two")
}
