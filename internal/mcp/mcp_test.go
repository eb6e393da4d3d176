package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deixis/ollamaprobe/internal/config"
	"github.com/deixis/ollamaprobe/internal/probe"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// setup creates an ollamaprobe MCP server + client over in-memory transports.
func setup(t *testing.T, cfg *config.Config) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := NewServer(probe.New(cfg))

	ct, st := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, st, nil)
	if err != nil {
		t.Fatalf("server.Connect: %v", err)
	}

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}

	t.Cleanup(func() {
		_ = cs.Close()
		_ = ss.Wait()
	})

	return cs
}

// fakeOllama writes an executable script standing in for the ollama binary.
func fakeOllama(t *testing.T, body string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ollama")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), mode); err != nil {
		t.Fatal(err)
	}
	return path
}

func callTool(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	return res
}

func resultText(r *mcp.CallToolResult) string {
	var parts []string
	for _, c := range r.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func TestListTools(t *testing.T) {
	cs := setup(t, &config.Config{})
	res, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	names := map[string]bool{}
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"ollama_installed", "ollama_serve"} {
		if !names[want] {
			t.Errorf("tool %s not registered (have %v)", want, names)
		}
	}
}

// --- ollama_installed ---

func TestInstalled_Present(t *testing.T) {
	tool := fakeOllama(t, `echo "ollama version is 0.5.7"`, 0o755)
	cs := setup(t, &config.Config{Binary: tool})

	res := callTool(t, cs, "ollama_installed", nil)
	text := resultText(res)
	if res.IsError {
		t.Fatalf("unexpected error: %s", text)
	}
	if text != "Ollama is installed." {
		t.Errorf("text = %q", text)
	}
}

func TestInstalled_Absent(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	cs := setup(t, &config.Config{})

	res := callTool(t, cs, "ollama_installed", nil)
	text := resultText(res)
	if res.IsError {
		t.Fatalf("absent tool must not be an error: %s", text)
	}
	if !strings.Contains(text, "Ollama is not installed") {
		t.Errorf("text = %q, want not installed", text)
	}
	if !strings.Contains(text, probe.DownloadURL) {
		t.Errorf("text = %q, want install hint", text)
	}
}

func TestInstalled_PermissionDenied(t *testing.T) {
	tool := fakeOllama(t, "exit 0", 0o644)
	cs := setup(t, &config.Config{Binary: tool})

	res := callTool(t, cs, "ollama_installed", nil)
	text := resultText(res)
	if !res.IsError {
		t.Fatalf("expected error result, got: %s", text)
	}
	if !strings.HasPrefix(text, "Error checking Ollama installation:") {
		t.Errorf("text = %q", text)
	}
}

// --- ollama_serve ---

func TestServe_Exited(t *testing.T) {
	tool := fakeOllama(t, "exit 1", 0o755)
	cs := setup(t, &config.Config{Binary: tool})

	res := callTool(t, cs, "ollama_serve", nil)
	text := resultText(res)
	if res.IsError {
		t.Fatalf("non-zero exit must not be an error: %s", text)
	}
	if text != "Ollama server exited." {
		t.Errorf("text = %q", text)
	}
}

func TestServe_Detached(t *testing.T) {
	tool := fakeOllama(t, "sleep 0.2", 0o755)
	cs := setup(t, &config.Config{Binary: tool, Serve: config.ServeConfig{Detach: true}})

	res := callTool(t, cs, "ollama_serve", nil)
	text := resultText(res)
	if res.IsError {
		t.Fatalf("unexpected error: %s", text)
	}
	if text != "Ollama server started." {
		t.Errorf("text = %q", text)
	}
}

func TestServe_Absent(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	cs := setup(t, &config.Config{})

	res := callTool(t, cs, "ollama_serve", nil)
	text := resultText(res)
	if !res.IsError {
		t.Fatalf("expected error result, got: %s", text)
	}
	if !strings.HasPrefix(text, "Error starting Ollama server:") {
		t.Errorf("text = %q", text)
	}
	if !strings.Contains(text, probe.DownloadURL) {
		t.Errorf("text = %q, want install hint", text)
	}
}
