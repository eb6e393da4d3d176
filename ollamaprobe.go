// Package ollamaprobe detects and launches a local Ollama installation
// on behalf of a desktop host.
package ollamaprobe

// Version is the release version, overridden at build time with
// -ldflags "-X github.com/deixis/ollamaprobe.Version=...".
var Version = "v0.1.0-dev"
