//go:build unix

package runner

import (
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

// detach moves the child into its own process group.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// deniedOnPath returns the first PATH entry named name that exists. It is
// only consulted after exec.LookPath failed, so any such entry is one the
// caller cannot execute (a directory, or a file without execute permission).
func deniedOnPath(name string) string {
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == "" {
			dir = "."
		}
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
