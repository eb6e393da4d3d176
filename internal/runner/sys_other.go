//go:build !unix

package runner

import "os/exec"

func detach(*exec.Cmd) {}

func deniedOnPath(string) string { return "" }
