//go:build unix

package rendering

import (
	"os/exec"
	"syscall"
)

// configureKill runs the engine in its own process group so a timeout kills
// any children it spawned along with it.
func configureKill(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
