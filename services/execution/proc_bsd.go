//go:build unix && !linux

package execution

import (
	"os/exec"
	"syscall"
)

// setProcAttrs puts the child in its own process group. Pdeathsig is Linux only.
func setProcAttrs(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
