// Package mcp exposes the probe operations to a host over the Model
// Context Protocol and publishes model instructions.
package mcp

import (
	_ "embed"

	"github.com/deixis/ollamaprobe"
	"github.com/deixis/ollamaprobe/internal/probe"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	probe *probe.Probe
}

// NewServer creates an MCP server with the ollama_installed and
// ollama_serve tools registered.
func NewServer(p *probe.Probe) *mcp.Server {
	h := &handler{probe: p}

	s := mcp.NewServer(&mcp.Implementation{Name: "ollamaprobe", Version: ollamaprobe.Version}, &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
	})

	mcp.AddTool(s, &mcp.Tool{
		Name: "ollama_installed",
		Description: `Report whether the Ollama CLI is installed on this machine.

Runs "ollama --version" once and discards its output. A binary that runs counts as installed
even if it exits non-zero. Returns an error only when the binary exists but cannot be started
(e.g. permission denied).`,
	}, h.installedHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "ollama_serve",
		Description: `Launch the Ollama server ("ollama serve").

Unless the server is configured to detach, this call blocks until the server process exits.
Succeeds whenever the process could be started, regardless of its exit status.`,
	}, h.serveHandler)

	return s
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
