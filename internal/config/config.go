// Package config provides configuration management for the CDB-MCP server.
//
// Configuration controls:
//   - Debugger location: explicit cdb path or automatic discovery
//   - Symbol resolution: the _NT_SYMBOL_PATH handed to every cdb process
//   - Timeouts: per-command deadline and session initialization deadline
//   - Safety limits: maximum concurrent sessions and idle-session eviction
//
// Values are resolved in layers: built-in defaults, then an optional JSON
// file, then environment variables, then command-line flags. Later layers
// win. Timeout fields are plain integer seconds so JSON files stay easy to
// write by hand.
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variables honored by ApplyEnv.
const (
	EnvCDBPath    = "CDB_PATH"
	EnvSymbolPath = "_NT_SYMBOL_PATH"
	EnvTimeout    = "MCP_WINDBG_TIMEOUT"
	EnvVerbose    = "MCP_WINDBG_VERBOSE"
)

// Default limits applied when a field is unset or nonsensical.
const (
	DefaultCommandTimeoutSeconds     = 30
	DefaultInitTimeoutSeconds        = 120
	DefaultMaxSessions               = 10
	DefaultSessionIdleTimeoutSeconds = 1800
)

// Config holds the server configuration
type Config struct {
	// CDBPath is an explicit path to cdb.exe. Empty means discover it in
	// the standard Debugging Tools locations and PATH.
	CDBPath string `json:"cdbPath"`

	// SymbolPath is passed to cdb as _NT_SYMBOL_PATH (and -y). Empty means
	// cdb uses whatever the environment already provides.
	SymbolPath string `json:"symbolPath"`

	// CommandTimeoutSeconds is the default deadline for a single debugger
	// command. Individual tool calls may override it per command.
	CommandTimeoutSeconds int `json:"commandTimeoutSeconds"`

	// InitTimeoutSeconds bounds session startup: spawning cdb, opening the
	// target, and initial symbol loading.
	InitTimeoutSeconds int `json:"initTimeoutSeconds"`

	// Limits for safety
	MaxSessions               int `json:"maxSessions"`
	SessionIdleTimeoutSeconds int `json:"sessionIdleTimeoutSeconds"`

	// Verbose enables debug-level logging on stderr.
	Verbose bool `json:"verbose"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		CommandTimeoutSeconds:     DefaultCommandTimeoutSeconds,
		InitTimeoutSeconds:        DefaultInitTimeoutSeconds,
		MaxSessions:               DefaultMaxSessions,
		SessionIdleTimeoutSeconds: DefaultSessionIdleTimeoutSeconds,
	}
}

// LoadConfig loads configuration from a JSON file layered over the defaults.
// An empty path returns the defaults unchanged.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnv overlays environment variables onto the configuration. Unset
// variables leave the current values alone; unparseable numeric values are
// ignored rather than failing startup.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvCDBPath); v != "" {
		c.CDBPath = v
	}
	if v := os.Getenv(EnvSymbolPath); v != "" {
		c.SymbolPath = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
			c.CommandTimeoutSeconds = seconds
		}
	}
	if v := os.Getenv(EnvVerbose); v != "" {
		c.Verbose = parseBool(v)
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// CommandTimeout returns the default per-command deadline.
func (c *Config) CommandTimeout() time.Duration {
	seconds := c.CommandTimeoutSeconds
	if seconds <= 0 {
		seconds = DefaultCommandTimeoutSeconds
	}
	return time.Duration(seconds) * time.Second
}

// InitTimeout returns the session initialization deadline.
func (c *Config) InitTimeout() time.Duration {
	seconds := c.InitTimeoutSeconds
	if seconds <= 0 {
		seconds = DefaultInitTimeoutSeconds
	}
	return time.Duration(seconds) * time.Second
}

// SessionIdleTimeout returns how long a session may sit idle before the
// registry evicts it. Zero or negative disables eviction.
func (c *Config) SessionIdleTimeout() time.Duration {
	return time.Duration(c.SessionIdleTimeoutSeconds) * time.Second
}
