//go:build !unix

package execution

import (
	"os"
	"os/exec"
)

// Process groups are not available here, only the direct child is killed.
func setProcAttrs(cmd *exec.Cmd) {}

func killGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}

func exitCode(state *os.ProcessState) int {
	if state == nil {
		return -1
	}
	return state.ExitCode()
}
