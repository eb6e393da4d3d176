// Package config loads and validates the optional ollamaprobe YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values.
const (
	DefaultBinary    = "ollama"
	DefaultMaxOutput = 1 << 20 // 1 MB
	CurrentVersion   = 1
)

// DefaultProbeArgs and DefaultServeArgs are used when no args are configured.
var (
	DefaultProbeArgs = []string{"--version"}
	DefaultServeArgs = []string{"serve"}
)

// Config holds the parsed configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	Version      int         `yaml:"version"`
	Binary       string      `yaml:"binary"`     // name looked up on PATH, or a path
	Dir          string      `yaml:"dir"`        // working directory for spawned processes
	Env          []string    `yaml:"env"`        // extra KEY=VALUE entries (e.g. OLLAMA_HOST=127.0.0.1:11434)
	RawMaxOutput int         `yaml:"max_output"` // bytes
	Probe        ProbeConfig `yaml:"probe"`
	Serve        ServeConfig `yaml:"serve"`
}

// ProbeConfig controls the installation check.
type ProbeConfig struct {
	Args       []string `yaml:"args"`    // default: [--version]
	RawTimeout string   `yaml:"timeout"` // e.g. "30s"; empty means none
}

// ServeConfig controls how the server is launched.
type ServeConfig struct {
	Args       []string `yaml:"args"`    // default: [serve]
	RawTimeout string   `yaml:"timeout"` // e.g. "1h"; empty means none
	Detach     bool     `yaml:"detach"`  // return once the process has started
}

// BinaryName returns the configured binary or the default.
func (c *Config) BinaryName() string {
	if b := strings.TrimSpace(c.Binary); b != "" {
		return b
	}
	return DefaultBinary
}

// MaxOutputBytes returns the configured max output size or the default.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return DefaultMaxOutput
}

// ProbeArgv returns the full argv for the installation check.
func (c *Config) ProbeArgv() []string {
	args := c.Probe.Args
	if len(args) == 0 {
		args = DefaultProbeArgs
	}
	return append([]string{c.BinaryName()}, args...)
}

// ServeArgv returns the full argv for the server launch.
func (c *Config) ServeArgv() []string {
	args := c.Serve.Args
	if len(args) == 0 {
		args = DefaultServeArgs
	}
	return append([]string{c.BinaryName()}, args...)
}

// ProbeTimeout returns the configured probe timeout, or zero for none.
func (c *Config) ProbeTimeout() time.Duration {
	return parseTimeout(c.Probe.RawTimeout)
}

// ServeTimeout returns the configured serve timeout, or zero for none.
func (c *Config) ServeTimeout() time.Duration {
	return parseTimeout(c.Serve.RawTimeout)
}

func parseTimeout(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// Validate reports configuration errors that would otherwise surface as
// confusing launch failures.
func (c *Config) Validate() error {
	if c.Version != 0 && c.Version != CurrentVersion {
		return fmt.Errorf("unsupported config version %d", c.Version)
	}
	if c.Binary != "" && strings.TrimSpace(c.Binary) == "" {
		return fmt.Errorf("binary must not be blank")
	}
	for _, kv := range c.Env {
		if !strings.Contains(kv, "=") {
			return fmt.Errorf("env entry %q is not KEY=VALUE", kv)
		}
	}
	for name, raw := range map[string]string{"probe.timeout": c.Probe.RawTimeout, "serve.timeout": c.Serve.RawTimeout} {
		if raw == "" {
			continue
		}
		if d, err := time.ParseDuration(raw); err != nil || d < 0 {
			return fmt.Errorf("%s: invalid duration %q", name, raw)
		}
	}
	return nil
}

// DefaultPath returns the location of the config file when none is given:
// <user config dir>/ollamaprobe/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config dir: %w", err)
	}
	return filepath.Join(dir, "ollamaprobe", "config.yaml"), nil
}

// Load reads the config file at path. An empty path means DefaultPath.
// If the file does not exist, a default Config is returned.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			// No config dir (e.g. $HOME unset); run on defaults.
			return &Config{}, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	return cfg, nil
}
