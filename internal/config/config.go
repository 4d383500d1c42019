package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendEtcd   = "etcd"
)

// DefaultNoServerMessage is the MiniMessage sent when no hub can take a player.
const DefaultNoServerMessage = "<red>There are no servers available. Please try again later."

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Docker
	DockerHost    string        // ex: "unix:///var/run/docker.sock"
	DockerTimeout time.Duration // response timeout for the Docker API (ex: 45s)

	// Discovery & reconciliation
	BackendNetwork    string        // network a backend must be attached to (ex: "minecraft-network")
	BackendPort       int           // port every backend listens on (ex: 25565)
	ProxyMarker       string        // containers whose name contains this are never registered
	HubMarker         string        // registered servers whose name contains this are hubs
	ReconcileInterval time.Duration // period between ticks (default: 10s)
	TickTimeout       time.Duration // upper bound for one tick (default: ReconcileInterval)

	// Routing
	NoServerMessage string // disconnect message when no hub is available

	// Registry
	RegistryBackend string // "memory" | "redis" | "etcd"

	// Redis (registry backend "redis")
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts

	// etcd (registry backend "etcd")
	EtcdEndpoints   []string      // ex: ["localhost:2379"]
	EtcdDialTimeout time.Duration // ex: 5s
	EtcdPrefix      string        // key prefix, ex: "/registrar/servers/"

	// HTTP access
	AllowedHosts   []string // optional, Host headers accepted by admin endpoints
	AllowedCIDRS   []string // optional, restrict admin endpoints to specific IPs/CIDRs
	TrustProxy     bool     // true => trust X-Forwarded-For headers
	RateLimitRPS   float64  // per-IP sustained request rate (0 = disabled)
	RateLimitBurst int      // per-IP burst
}

// Load builds the configuration from an optional YAML file (REGISTRAR_CONFIG_FILE)
// and the environment. Environment variables always win over the file.
func Load() *Config {
	src := source{}
	if path := os.Getenv("REGISTRAR_CONFIG_FILE"); path != "" {
		values, err := loadFile(path)
		if err != nil {
			panic(fmt.Sprintf("❌ FATAL: %v", err))
		}
		src.file = values
	}

	cfg := src.build()
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfgCopy.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

func (s source) build() *Config {
	interval := s.mustDuration("REGISTRAR_RECONCILE_INTERVAL", 10*time.Second)

	return &Config{
		// Server settings
		ListenPort:      s.getenv("REGISTRAR_LISTEN_PORT", ":8080"),
		ShutdownTimeout: s.mustDuration("REGISTRAR_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  s.getenv("REGISTRAR_LOG_LEVEL", "info"),
		PrettyLog: s.mustBool("REGISTRAR_PRETTY_LOG", false),

		// Docker
		DockerHost:    s.getenv("REGISTRAR_DOCKER_HOST", "unix:///var/run/docker.sock"),
		DockerTimeout: s.mustDuration("REGISTRAR_DOCKER_TIMEOUT", 45*time.Second),

		// Discovery & reconciliation
		BackendNetwork:    s.getenv("REGISTRAR_BACKEND_NETWORK", "minecraft-network"),
		BackendPort:       s.getenvInt("REGISTRAR_BACKEND_PORT", 25565),
		ProxyMarker:       s.getenv("REGISTRAR_PROXY_MARKER", "proxy"),
		HubMarker:         s.getenv("REGISTRAR_HUB_MARKER", "hub"),
		ReconcileInterval: interval,
		TickTimeout:       s.mustDuration("REGISTRAR_TICK_TIMEOUT", interval),

		// Routing
		NoServerMessage: s.getenv("REGISTRAR_NO_SERVER_MESSAGE", DefaultNoServerMessage),

		// Registry
		RegistryBackend: strings.ToLower(s.getenv("REGISTRAR_REGISTRY_BACKEND", BackendMemory)),

		// Redis settings
		RedisAddr:           s.getenv("REGISTRAR_REDIS_ADDR", "localhost:6379"),
		RedisUser:           s.getenv("REGISTRAR_REDIS_USERNAME", ""),
		RedisPassword:       s.getenv("REGISTRAR_REDIS_PASSWORD", ""),
		RedisDB:             s.getenvInt("REGISTRAR_REDIS_DB", 0),
		RedisDT:             s.mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             s.mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             s.mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        s.mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    s.mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       s.getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: s.mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  s.mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  s.getenvInt("REDIS_WARN_THRESHOLD", 3),

		// etcd settings
		EtcdEndpoints:   splitAndTrim(s.getenv("REGISTRAR_ETCD_ENDPOINTS", "localhost:2379")),
		EtcdDialTimeout: s.mustDuration("REGISTRAR_ETCD_DIAL_TIMEOUT", 5*time.Second),
		EtcdPrefix:      s.getenv("REGISTRAR_ETCD_PREFIX", "/registrar/servers/"),

		// Access restrictions
		AllowedHosts:   splitAndTrim(s.getenv("REGISTRAR_ALLOWED_HOSTS", "")),
		AllowedCIDRS:   splitAndTrim(s.getenv("REGISTRAR_ALLOWED_CIDRS", "")),
		TrustProxy:     s.mustBool("REGISTRAR_TRUST_PROXY", false),
		RateLimitRPS:   s.getenvFloat("REGISTRAR_RATE_LIMIT_RPS", 20),
		RateLimitBurst: s.getenvInt("REGISTRAR_RATE_LIMIT_BURST", 40),
	}
}

// Validate rejects configurations the registrar cannot run with.
func (c *Config) Validate() error {
	var errs []error

	switch c.RegistryBackend {
	case BackendMemory, BackendRedis, BackendEtcd:
	default:
		errs = append(errs, fmt.Errorf("unknown registry backend %q (want memory, redis or etcd)", c.RegistryBackend))
	}
	if c.ReconcileInterval <= 0 {
		errs = append(errs, fmt.Errorf("reconcile interval must be > 0, got %v", c.ReconcileInterval))
	}
	if c.TickTimeout <= 0 {
		errs = append(errs, fmt.Errorf("tick timeout must be > 0, got %v", c.TickTimeout))
	}
	if c.BackendPort < 1 || c.BackendPort > 65535 {
		errs = append(errs, fmt.Errorf("backend port out of range: %d", c.BackendPort))
	}
	if c.BackendNetwork == "" {
		errs = append(errs, errors.New("backend network must not be empty"))
	}
	if c.HubMarker == "" || c.ProxyMarker == "" {
		errs = append(errs, errors.New("hub and proxy markers must not be empty"))
	}
	if c.RegistryBackend == BackendEtcd && len(c.EtcdEndpoints) == 0 {
		errs = append(errs, errors.New("etcd backend requires REGISTRAR_ETCD_ENDPOINTS"))
	}

	return errors.Join(errs...)
}

// source resolves a key from the environment first, then from the config file.
type source struct {
	file map[string]string
}

func (s source) lookup(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return s.file[key]
}

// helpers
func (s source) getenv(key, def string) string {
	if v := s.lookup(key); v != "" {
		return v
	}
	return def
}

func (s source) getenvInt(key string, def int) int {
	if v := s.lookup(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func (s source) getenvFloat(key string, def float64) float64 {
	if v := s.lookup(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func (s source) mustBool(key string, def bool) bool {
	if v := s.lookup(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func (s source) mustDuration(key string, def time.Duration) time.Duration {
	if v := s.lookup(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
