package execution

import (
	"os/exec"
	"syscall"
)

// setProcAttrs puts the child in its own process group, so the whole tree can be
// killed at once, and makes the kernel kill it if the server dies first.
func setProcAttrs(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}
}
