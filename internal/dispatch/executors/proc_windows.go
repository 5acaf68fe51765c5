//go:build windows

package executors

import "os/exec"

func shellCommand() []string {
	return []string{"cmd", "/C"}
}

func configureProcess(cmd *exec.Cmd) {}
