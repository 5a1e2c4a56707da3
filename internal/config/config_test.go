package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefaultConfig verifies the built-in defaults.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.CDBPath != "" {
		t.Errorf("Expected empty CDBPath, got %q", cfg.CDBPath)
	}
	if cfg.CommandTimeoutSeconds != DefaultCommandTimeoutSeconds {
		t.Errorf("Expected command timeout %d, got %d", DefaultCommandTimeoutSeconds, cfg.CommandTimeoutSeconds)
	}
	if cfg.InitTimeoutSeconds != DefaultInitTimeoutSeconds {
		t.Errorf("Expected init timeout %d, got %d", DefaultInitTimeoutSeconds, cfg.InitTimeoutSeconds)
	}
	if cfg.MaxSessions != DefaultMaxSessions {
		t.Errorf("Expected max sessions %d, got %d", DefaultMaxSessions, cfg.MaxSessions)
	}
	if cfg.SessionIdleTimeoutSeconds != DefaultSessionIdleTimeoutSeconds {
		t.Errorf("Expected idle timeout %d, got %d", DefaultSessionIdleTimeoutSeconds, cfg.SessionIdleTimeoutSeconds)
	}
	if cfg.Verbose {
		t.Error("Expected verbose off by default")
	}
}

// TestLoadConfig verifies that a partial JSON file overlays the defaults
// without clearing unrelated fields.
func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"cdbPath": "C:\\Debuggers\\cdb.exe",
		"commandTimeoutSeconds": 60
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.CDBPath != `C:\Debuggers\cdb.exe` {
		t.Errorf("Expected cdbPath from file, got %q", cfg.CDBPath)
	}
	if cfg.CommandTimeoutSeconds != 60 {
		t.Errorf("Expected command timeout 60, got %d", cfg.CommandTimeoutSeconds)
	}
	// Fields absent from the file keep their defaults.
	if cfg.MaxSessions != DefaultMaxSessions {
		t.Errorf("Expected default max sessions, got %d", cfg.MaxSessions)
	}
}

// TestLoadConfigEmptyPath verifies that no file means pure defaults.
func TestLoadConfigEmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.CommandTimeoutSeconds != DefaultCommandTimeoutSeconds {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
}

// TestLoadConfigErrors verifies missing files and bad JSON are reported.
func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected an error for a missing config file")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected an error for invalid JSON")
	}
}

// TestApplyEnv verifies the environment overlay, including that junk numeric
// values are ignored instead of failing startup.
func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvCDBPath, `D:\tools\cdb.exe`)
	t.Setenv(EnvSymbolPath, `srv*C:\sym*https://msdl.microsoft.com/download/symbols`)
	t.Setenv(EnvTimeout, "45")
	t.Setenv(EnvVerbose, "true")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	if cfg.CDBPath != `D:\tools\cdb.exe` {
		t.Errorf("Expected CDBPath from env, got %q", cfg.CDBPath)
	}
	if cfg.SymbolPath != `srv*C:\sym*https://msdl.microsoft.com/download/symbols` {
		t.Errorf("Expected SymbolPath from env, got %q", cfg.SymbolPath)
	}
	if cfg.CommandTimeoutSeconds != 45 {
		t.Errorf("Expected timeout 45 from env, got %d", cfg.CommandTimeoutSeconds)
	}
	if !cfg.Verbose {
		t.Error("Expected verbose on from env")
	}

	// Unparseable and non-positive timeouts leave the value alone.
	for _, bad := range []string{"abc", "-5", "0"} {
		t.Setenv(EnvTimeout, bad)
		cfg := DefaultConfig()
		cfg.ApplyEnv()
		if cfg.CommandTimeoutSeconds != DefaultCommandTimeoutSeconds {
			t.Errorf("Expected %q to be ignored, got timeout %d", bad, cfg.CommandTimeoutSeconds)
		}
	}
}

// TestApplyEnvVerboseForms verifies the accepted truthy spellings.
func TestApplyEnvVerboseForms(t *testing.T) {
	cases := map[string]bool{
		"1":     true,
		"true":  true,
		"YES":   true,
		" on ":  true,
		"0":     false,
		"false": false,
		"nope":  false,
	}
	for value, want := range cases {
		t.Setenv(EnvVerbose, value)
		cfg := DefaultConfig()
		cfg.ApplyEnv()
		if cfg.Verbose != want {
			t.Errorf("Expected verbose=%v for %q, got %v", want, value, cfg.Verbose)
		}
	}
}

// TestTimeoutAccessors verifies duration conversion and the self-healing of
// nonsensical values.
func TestTimeoutAccessors(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.CommandTimeout() != 30*time.Second {
		t.Errorf("Expected 30s command timeout, got %v", cfg.CommandTimeout())
	}
	if cfg.InitTimeout() != 120*time.Second {
		t.Errorf("Expected 120s init timeout, got %v", cfg.InitTimeout())
	}
	if cfg.SessionIdleTimeout() != 1800*time.Second {
		t.Errorf("Expected 1800s idle timeout, got %v", cfg.SessionIdleTimeout())
	}

	cfg.CommandTimeoutSeconds = 0
	cfg.InitTimeoutSeconds = -1
	if cfg.CommandTimeout() != DefaultCommandTimeoutSeconds*time.Second {
		t.Errorf("Expected zero command timeout to heal to the default, got %v", cfg.CommandTimeout())
	}
	if cfg.InitTimeout() != DefaultInitTimeoutSeconds*time.Second {
		t.Errorf("Expected negative init timeout to heal to the default, got %v", cfg.InitTimeout())
	}

	// Idle timeout zero means eviction disabled, so it is not healed.
	cfg.SessionIdleTimeoutSeconds = 0
	if cfg.SessionIdleTimeout() != 0 {
		t.Errorf("Expected 0 idle timeout to stay 0, got %v", cfg.SessionIdleTimeout())
	}
}
