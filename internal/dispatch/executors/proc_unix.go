//go:build !windows

package executors

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

func shellCommand() []string {
	return []string{"sh", "-c"}
}

// configureProcess puts the shell in its own process group so a timeout
// kills everything the command line started, not just the shell
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if errors.Is(err, syscall.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
}
