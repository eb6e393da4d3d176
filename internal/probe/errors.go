package probe

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"

	"github.com/deixis/ollamaprobe/internal/runner"
)

// DownloadURL is where install instructions point.
const DownloadURL = "https://ollama.com/download"

// IsNotFound reports whether err means the binary could not be located:
// either the PATH lookup failed or an explicit path does not exist.
// Only spawn errors qualify, so a missing working directory does not.
func IsNotFound(err error) bool {
	var spawnErr *runner.SpawnError
	if !errors.As(err, &spawnErr) {
		return false
	}
	return errors.Is(spawnErr.Err, exec.ErrNotFound) || errors.Is(spawnErr.Err, fs.ErrNotExist)
}

// ErrNotInstalled describes a missing Ollama binary with actionable
// install instructions. Host adapters render it for the user.
type ErrNotInstalled struct {
	Binary string
}

func (e ErrNotInstalled) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ollama is not installed (%s not found).", e.Binary)
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "\nInstall: %s", DownloadURL)
	if !strings.ContainsRune(e.Binary, '/') {
		fmt.Fprintf(&b, "\nIf it is installed, make sure %s is on PATH or set binary in the config file.", e.Binary)
	}
	return b.String()
}
