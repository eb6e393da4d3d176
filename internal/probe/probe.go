// Package probe checks whether the Ollama CLI is installed and launches
// its server. Both operations spawn the binary once and classify the
// outcome; no state is kept between calls.
package probe

import (
	"context"
	"errors"
	"fmt"

	"github.com/deixis/ollamaprobe/internal/config"
	"github.com/deixis/ollamaprobe/internal/runner"
)

// CommandRunner executes commands. Implemented by runner.Runner.
type CommandRunner interface {
	Run(ctx context.Context, argv []string) (*runner.Result, error)
	Start(argv []string) (*runner.Process, error)
}

// Probe holds the dependencies for the check and launch operations.
type Probe struct {
	Config *config.Config

	// Check and Serve run the probe and the server launch respectively.
	// They differ only in timeout.
	Check CommandRunner
	Serve CommandRunner

	// OnExit, if set, receives the result of a detached server once it exits.
	OnExit func(*runner.Result)
}

// New returns a Probe whose runners are configured from cfg.
func New(cfg *config.Config) *Probe {
	base := runner.Runner{
		Dir:       cfg.Dir,
		Env:       cfg.Env,
		MaxOutput: cfg.MaxOutputBytes(),
	}
	check, serve := base, base
	check.Timeout = cfg.ProbeTimeout()
	serve.Timeout = cfg.ServeTimeout()
	return &Probe{Config: cfg, Check: &check, Serve: &serve}
}

// Installed reports whether the binary can be spawned. It runs the probe
// argv (by default "ollama --version"), waits for it, and ignores its
// output and exit status: a tool that runs and fails is still installed.
//
// It returns false with a nil error only when the binary cannot be found.
// Any other spawn failure is returned as a *LaunchError. If ctx is done
// before the spawn, its error is returned unwrapped.
func (p *Probe) Installed(ctx context.Context) (bool, error) {
	_, err := p.Check.Run(ctx, p.Config.ProbeArgv())
	if err == nil {
		return true, nil
	}
	if IsNotFound(err) {
		return false, nil
	}
	if isCanceled(err) {
		return false, err
	}
	return false, &LaunchError{Op: OpCheck, Err: err}
}

// StartServer launches the server argv (by default "ollama serve").
//
// By default it blocks until the server process exits and succeeds
// whatever the exit status. With serve.detach set, it returns as soon as
// the process has started and reaps it in the background.
//
// A spawn failure, including a missing binary, is returned as a *LaunchError.
func (p *Probe) StartServer(ctx context.Context) error {
	argv := p.Config.ServeArgv()

	if !p.Config.Serve.Detach {
		if _, err := p.Serve.Run(ctx, argv); err != nil {
			if isCanceled(err) {
				return err
			}
			return &LaunchError{Op: OpServe, Err: err}
		}
		return nil
	}

	proc, err := p.Serve.Start(argv)
	if err != nil {
		return &LaunchError{Op: OpServe, Err: err}
	}
	go func() {
		res := proc.Wait()
		if p.OnExit != nil {
			p.OnExit(res)
		}
	}()
	return nil
}

// Op identifies which operation failed to launch.
type Op string

const (
	OpCheck Op = "check"
	OpServe Op = "serve"
)

// LaunchError is returned when the operating system could not spawn the
// binary for a reason the caller must see.
type LaunchError struct {
	Op  Op
	Err error
}

func (e *LaunchError) Error() string {
	switch e.Op {
	case OpServe:
		return fmt.Sprintf("Error starting Ollama server: %v", cause(e.Err))
	default:
		return fmt.Sprintf("Error checking Ollama installation: %v", cause(e.Err))
	}
}

func (e *LaunchError) Unwrap() error { return e.Err }

// cause strips the runner's "executing <bin>:" prefix so the message
// carries the OS error text directly.
func cause(err error) error {
	var spawnErr *runner.SpawnError
	if errors.As(err, &spawnErr) {
		return spawnErr.Err
	}
	return err
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
