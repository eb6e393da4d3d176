// Package runner spawns external commands with bounded output capture,
// optional timeouts, and a clear split between "the process ran" and
// "the process could not be started".
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxOutput is used when Runner.MaxOutput is not set.
const DefaultMaxOutput = 1 << 20 // 1 MB

const waitDelay = time.Second

// Runner executes external commands.
// The zero value is usable: no working directory override, no timeout,
// default output cap.
type Runner struct {
	Dir       string        // working directory; empty means the caller's cwd
	Env       []string      // extra KEY=VALUE entries appended to os.Environ()
	Timeout   time.Duration // zero means no timeout
	MaxOutput int           // bytes captured per stream
}

// SpawnError reports that the operating system could not create the
// process at all. A process that started and then failed is never a
// SpawnError; it is a Result with a non-zero ExitCode.
type SpawnError struct {
	Argv []string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("executing %s: %v", e.Argv[0], e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Run executes argv and waits for it to exit. The first element is the
// binary name (resolved via PATH unless it contains a separator), and the
// rest are arguments.
//
// A non-zero exit status, including a kill caused by the timeout or by ctx,
// is reported through Result.ExitCode. The returned error is non-nil only
// when the process could not be spawned (*SpawnError) or the runner itself
// is misconfigured. If ctx is already done before the spawn, ctx.Err() is
// returned as is.
func (r *Runner) Run(ctx context.Context, argv []string) (*Result, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty argv")
	}
	if err := r.checkDir(); err != nil {
		return nil, err
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	runID := uuid.New().String()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	r.prepare(cmd)

	var stdout, stderr bytes.Buffer
	maxOutput := r.maxOutput()
	cmd.Stdout = &limitWriter{buf: &stdout, limit: maxOutput}
	cmd.Stderr = &limitWriter{buf: &stderr, limit: maxOutput}

	// Bounds Wait when a grandchild keeps the output pipes open.
	cmd.WaitDelay = waitDelay

	runErr := cmd.Run()

	exitCode := 0
	if runErr != nil {
		if cmd.Process == nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			// Binary not found or other exec error.
			return nil, &SpawnError{Argv: argv, Err: spawnCause(argv[0], runErr)}
		}
		exitCode = -1
		if cmd.ProcessState != nil {
			exitCode = cmd.ProcessState.ExitCode()
		}
	}

	return &Result{
		RunID:     runID,
		ExitCode:  exitCode,
		Stdout:    stdout.Bytes(),
		Stderr:    stderr.Bytes(),
		Truncated: stdout.Len() >= maxOutput || stderr.Len() >= maxOutput,
	}, nil
}

// Process is a command started by Start that has not been waited for.
type Process struct {
	RunID string
	PID   int

	cmd *exec.Cmd
}

// Start spawns argv and returns as soon as the process exists. The process
// is not tied to any context and may outlive the caller, so its output is
// not captured: stdout and stderr go to the null device. On unix it runs in
// its own process group, out of reach of terminal signals aimed at the
// caller. Timeout does not apply.
func (r *Runner) Start(argv []string) (*Process, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty argv")
	}
	if err := r.checkDir(); err != nil {
		return nil, err
	}

	p := &Process{
		RunID: uuid.New().String(),
		cmd:   exec.Command(argv[0], argv[1:]...),
	}
	r.prepare(p.cmd)
	detach(p.cmd)

	if err := p.cmd.Start(); err != nil {
		return nil, &SpawnError{Argv: argv, Err: spawnCause(argv[0], err)}
	}
	p.PID = p.cmd.Process.Pid
	return p, nil
}

// Wait blocks until the process exits and returns its result.
// It must be called at most once.
func (p *Process) Wait() *Result {
	exitCode := 0
	if err := p.cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}
	return &Result{RunID: p.RunID, ExitCode: exitCode}
}

func (r *Runner) prepare(cmd *exec.Cmd) {
	cmd.Dir = r.Dir
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
}

func (r *Runner) maxOutput() int {
	if r.MaxOutput > 0 {
		return r.MaxOutput
	}
	return DefaultMaxOutput
}

// checkDir validates Dir up front. A missing working directory makes the
// spawn fail with ENOENT, which would otherwise be indistinguishable from
// a missing binary.
func (r *Runner) checkDir() error {
	if strings.TrimSpace(r.Dir) == "" {
		return nil
	}
	fi, err := os.Stat(r.Dir)
	if err != nil {
		return fmt.Errorf("working directory %q: %v", r.Dir, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("working directory %q is not a directory", r.Dir)
	}
	return nil
}

// limitWriter writes up to limit bytes to buf, then silently discards the rest.
type limitWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (w *limitWriter) Write(p []byte) (int, error) {
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		return len(p), nil // discard
	}
	if len(p) > remaining {
		// Write only what fits, but report all bytes as consumed
		// to avoid short write errors from io.Copy.
		w.buf.Write(p[:remaining])
		return len(p), nil
	}
	return w.buf.Write(p)
}

// spawnCause refines a PATH lookup failure. exec.LookPath skips entries
// that are not executable, while execvp reports them as EACCES. A bare
// name that only matches non-executable PATH entries is therefore a
// permission error on the first such entry, not a missing binary.
func spawnCause(name string, err error) error {
	if !errors.Is(err, exec.ErrNotFound) || strings.ContainsRune(name, filepath.Separator) {
		return err
	}
	if path := deniedOnPath(name); path != "" {
		return &fs.PathError{Op: "exec", Path: path, Err: fs.ErrPermission}
	}
	return err
}
