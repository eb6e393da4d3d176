// Command ollamaprobe checks for and launches a local Ollama installation.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"

	"github.com/deixis/ollamaprobe"
	"github.com/deixis/ollamaprobe/internal/config"
	probemcp "github.com/deixis/ollamaprobe/internal/mcp"
	"github.com/deixis/ollamaprobe/internal/probe"
	"github.com/deixis/ollamaprobe/internal/runner"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("ollamaprobe: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "installed":
		var ok bool
		ok, err = installedMain(args, os.Stdout)
		if err == nil && !ok {
			os.Exit(1)
		}
	case "serve":
		err = serveMain(args)
	case "mcp":
		err = mcpMain(args)
	case "version":
		fmt.Println(ollamaprobe.Version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "ollamaprobe: unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: ollamaprobe <command> [flags]

Commands:
  installed   Report whether the ollama CLI is installed (exit 1 if not)
  serve       Run "ollama serve"
  mcp         Start the MCP server
  version     Print the version
  help        Show this help

Use "ollamaprobe <command> -h" for command-specific flags.`)
}

// --- installed ---

func installedMain(args []string, stdout io.Writer) (bool, error) {
	fs := flag.NewFlagSet("installed", flag.ExitOnError)
	configFlag := fs.String("config", "", "config file (default: user config dir)")
	jsonFlag := fs.Bool("json", false, "output result as JSON")
	_ = fs.Parse(args)

	p, err := newProbe(*configFlag)
	if err != nil {
		return false, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ok, err := p.Installed(ctx)
	if err != nil {
		return false, err
	}

	if *jsonFlag {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return ok, enc.Encode(struct {
			Installed bool `json:"installed"`
		}{ok})
	}

	if ok {
		fmt.Fprintln(stdout, "installed")
	} else {
		fmt.Fprintln(stdout, "not installed")
	}
	return ok, nil
}

// --- serve ---

func serveMain(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configFlag := fs.String("config", "", "config file (default: user config dir)")
	_ = fs.Parse(args)

	p, err := newProbe(*configFlag)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Printf("starting %v", p.Config.ServeArgv())
	if err := p.StartServer(ctx); err != nil {
		if probe.IsNotFound(err) {
			return fmt.Errorf("%w\n\n%v", err, probe.ErrNotInstalled{Binary: p.Config.BinaryName()})
		}
		return err
	}
	if p.Config.Serve.Detach {
		log.Printf("server started in the background")
	} else {
		log.Printf("server exited")
	}
	return nil
}

// --- mcp ---

func mcpMain(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	configFlag := fs.String("config", "", "config file (default: user config dir)")
	instructions := fs.Bool("instructions", false, "print model instructions and exit")
	httpAddr := fs.String("http", "", "start HTTP server on address (e.g. :9090)")
	_ = fs.Parse(args)

	if *instructions {
		fmt.Print(probemcp.Instructions)
		return nil
	}

	p, err := newProbe(*configFlag)
	if err != nil {
		return err
	}
	p.OnExit = func(res *runner.Result) {
		log.Printf("detached server %s exited with code %d", res.RunID, res.ExitCode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	server := probemcp.NewServer(p)

	if *httpAddr != "" {
		return serveHTTP(ctx, server, *httpAddr)
	}
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

func serveHTTP(ctx context.Context, server *mcpsdk.Server, addr string) error {
	handler := mcpsdk.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcpsdk.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	log.Printf("listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// --- shared ---

func newProbe(configPath string) (*probe.Probe, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return probe.New(cfg), nil
}
