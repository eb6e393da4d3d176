package mcp

import (
	"context"
	"fmt"

	"github.com/deixis/ollamaprobe/internal/probe"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type installedParams struct{}

func (h *handler) installedHandler(ctx context.Context, req *mcp.CallToolRequest, _ installedParams) (*mcp.CallToolResult, any, error) {
	ok, err := h.probe.Installed(ctx)
	if err != nil {
		return errorResult(err.Error())
	}
	if !ok {
		notInstalled := probe.ErrNotInstalled{Binary: h.probe.Config.BinaryName()}
		return textResult(notInstalled.Error())
	}
	return textResult("Ollama is installed.")
}

type serveParams struct{}

func (h *handler) serveHandler(ctx context.Context, req *mcp.CallToolRequest, _ serveParams) (*mcp.CallToolResult, any, error) {
	if err := h.probe.StartServer(ctx); err != nil {
		if probe.IsNotFound(err) {
			notInstalled := probe.ErrNotInstalled{Binary: h.probe.Config.BinaryName()}
			return errorResult(fmt.Sprintf("%v\n\n%v", err, notInstalled))
		}
		return errorResult(err.Error())
	}
	if h.probe.Config.Serve.Detach {
		return textResult("Ollama server started.")
	}
	return textResult("Ollama server exited.")
}
