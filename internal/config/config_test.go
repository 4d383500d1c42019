package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{
			name:     "valid duration",
			key:      "TEST_DURATION",
			value:    "5s",
			def:      1 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "invalid duration uses default",
			key:      "TEST_DURATION_INVALID",
			value:    "invalid",
			def:      10 * time.Second,
			expected: 10 * time.Second,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_DURATION_MISSING",
			value:    "",
			def:      15 * time.Second,
			expected: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}

			result := source{}.mustDuration(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      bool
		expected bool
	}{
		{
			name:     "true value",
			key:      "TEST_BOOL",
			value:    "true",
			def:      false,
			expected: true,
		},
		{
			name:     "false value",
			key:      "TEST_BOOL_FALSE",
			value:    "false",
			def:      true,
			expected: false,
		},
		{
			name:     "invalid value uses default",
			key:      "TEST_BOOL_INVALID",
			value:    "invalid",
			def:      true,
			expected: true,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_BOOL_MISSING",
			value:    "",
			def:      false,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}

			result := source{}.mustBool(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestGetenvIntAndFloat(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_INT_INVALID", "not_a_number")
	t.Setenv("TEST_FLOAT", "2.5")

	s := source{}
	if got := s.getenvInt("TEST_INT", 1); got != 42 {
		t.Errorf("getenvInt() = %v, want 42", got)
	}
	if got := s.getenvInt("TEST_INT_INVALID", 7); got != 7 {
		t.Errorf("getenvInt() with invalid value = %v, want default 7", got)
	}
	if got := s.getenvFloat("TEST_FLOAT", 1); got != 2.5 {
		t.Errorf("getenvFloat() = %v, want 2.5", got)
	}
}

func TestSourceEnvOverridesFile(t *testing.T) {
	s := source{file: map[string]string{
		"TEST_FROM_FILE":  "file",
		"TEST_OVERRIDDEN": "file",
	}}
	t.Setenv("TEST_OVERRIDDEN", "env")

	if got := s.getenv("TEST_FROM_FILE", "def"); got != "file" {
		t.Errorf("getenv() = %q, want value from file", got)
	}
	if got := s.getenv("TEST_OVERRIDDEN", "def"); got != "env" {
		t.Errorf("getenv() = %q, want env to win over file", got)
	}
	if got := s.getenv("TEST_NOWHERE", "def"); got != "def" {
		t.Errorf("getenv() = %q, want default", got)
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty", input: "", expected: nil},
		{name: "single value", input: "value1", expected: []string{"value1"}},
		{name: "multiple values", input: "value1, value2 ,value3", expected: []string{"value1", "value2", "value3"}},
		{name: "quoted values", input: `"10.0.0.0/8", '127.0.0.1'`, expected: []string{"10.0.0.0/8", "127.0.0.1"}},
		{name: "empty parts dropped", input: "a,,b, ", expected: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitAndTrim(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("splitAndTrim() length = %v, want %v", len(result), len(tt.expected))
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("splitAndTrim()[%d] = %v, want %v", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestBuildDefaults(t *testing.T) {
	cfg := source{}.build()

	if cfg.BackendNetwork != "minecraft-network" {
		t.Errorf("BackendNetwork = %q, want minecraft-network", cfg.BackendNetwork)
	}
	if cfg.BackendPort != 25565 {
		t.Errorf("BackendPort = %d, want 25565", cfg.BackendPort)
	}
	if cfg.HubMarker != "hub" || cfg.ProxyMarker != "proxy" {
		t.Errorf("markers = %q/%q, want hub/proxy", cfg.HubMarker, cfg.ProxyMarker)
	}
	if cfg.ReconcileInterval != 10*time.Second {
		t.Errorf("ReconcileInterval = %v, want 10s", cfg.ReconcileInterval)
	}
	if cfg.TickTimeout != cfg.ReconcileInterval {
		t.Errorf("TickTimeout = %v, want it to default to the interval", cfg.TickTimeout)
	}
	if cfg.RegistryBackend != BackendMemory {
		t.Errorf("RegistryBackend = %q, want memory", cfg.RegistryBackend)
	}
	if cfg.NoServerMessage != DefaultNoServerMessage {
		t.Errorf("NoServerMessage = %q", cfg.NoServerMessage)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "unknown backend", mutate: func(c *Config) { c.RegistryBackend = "zookeeper" }, wantErr: "unknown registry backend"},
		{name: "zero interval", mutate: func(c *Config) { c.ReconcileInterval = 0 }, wantErr: "reconcile interval"},
		{name: "port out of range", mutate: func(c *Config) { c.BackendPort = 70000 }, wantErr: "backend port"},
		{name: "empty network", mutate: func(c *Config) { c.BackendNetwork = "" }, wantErr: "backend network"},
		{name: "empty hub marker", mutate: func(c *Config) { c.HubMarker = "" }, wantErr: "markers"},
		{
			name: "etcd without endpoints",
			mutate: func(c *Config) {
				c.RegistryBackend = BackendEtcd
				c.EtcdEndpoints = nil
			},
			wantErr: "etcd backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := source{}.build()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registrar.yaml")
	content := `---
log_level: warn
discovery:
  network: games
  port: 25577
  hub_marker: lobby
  interval: 30s
registry:
  backend: etcd
  etcd:
    endpoints: [etcd-1:2379, etcd-2:2379]
http:
  trust_proxy: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("REGISTRAR_CONFIG_FILE", path)
	t.Setenv("REGISTRAR_HUB_MARKER", "hub")

	cfg := Load()

	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
	if cfg.BackendNetwork != "games" || cfg.BackendPort != 25577 {
		t.Errorf("network/port = %q/%d, want games/25577", cfg.BackendNetwork, cfg.BackendPort)
	}
	if cfg.HubMarker != "hub" {
		t.Errorf("HubMarker = %q, env should override the file", cfg.HubMarker)
	}
	if cfg.ReconcileInterval != 30*time.Second || cfg.TickTimeout != 30*time.Second {
		t.Errorf("interval/tick timeout = %v/%v, want 30s/30s", cfg.ReconcileInterval, cfg.TickTimeout)
	}
	if cfg.RegistryBackend != BackendEtcd || len(cfg.EtcdEndpoints) != 2 {
		t.Errorf("registry = %q %v, want etcd with two endpoints", cfg.RegistryBackend, cfg.EtcdEndpoints)
	}
	if !cfg.TrustProxy {
		t.Error("TrustProxy = false, want true from file")
	}
}

func TestLoadPanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("REGISTRAR_REGISTRY_BACKEND", "nope")

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Load() should have panicked")
		}
	}()

	Load()
}

func TestLoadPanicsOnMissingFile(t *testing.T) {
	t.Setenv("REGISTRAR_CONFIG_FILE", "/nonexistent/registrar.yaml")

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Load() should have panicked")
		}
	}()

	Load()
}
