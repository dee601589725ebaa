//go:build !unix

package rendering

import "os/exec"

func configureKill(cmd *exec.Cmd) {}
