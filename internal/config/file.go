package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileConfig is the optional YAML layout. Every field maps onto one
// environment variable; empty fields leave the built-in default alone.
type fileConfig struct {
	ListenPort      string `yaml:"listen_port"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
	LogLevel        string `yaml:"log_level"`
	PrettyLog       *bool  `yaml:"pretty_log"`

	Docker struct {
		Host    string `yaml:"host"`
		Timeout string `yaml:"timeout"`
	} `yaml:"docker"`

	Discovery struct {
		Network     string `yaml:"network"`
		Port        int    `yaml:"port"`
		ProxyMarker string `yaml:"proxy_marker"`
		HubMarker   string `yaml:"hub_marker"`
		Interval    string `yaml:"interval"`
		TickTimeout string `yaml:"tick_timeout"`
	} `yaml:"discovery"`

	Routing struct {
		NoServerMessage string `yaml:"no_server_message"`
	} `yaml:"routing"`

	Registry struct {
		Backend string `yaml:"backend"`
		Redis   struct {
			Addr     string `yaml:"addr"`
			Username string `yaml:"username"`
			Password string `yaml:"password"`
			DB       *int   `yaml:"db"`
		} `yaml:"redis"`
		Etcd struct {
			Endpoints   []string `yaml:"endpoints"`
			DialTimeout string   `yaml:"dial_timeout"`
			Prefix      string   `yaml:"prefix"`
		} `yaml:"etcd"`
	} `yaml:"registry"`

	HTTP struct {
		AllowedHosts   []string `yaml:"allowed_hosts"`
		AllowedCIDRS   []string `yaml:"allowed_cidrs"`
		TrustProxy     *bool    `yaml:"trust_proxy"`
		RateLimitRPS   *float64 `yaml:"rate_limit_rps"`
		RateLimitBurst *int     `yaml:"rate_limit_burst"`
	} `yaml:"http"`
}

// loadFile reads path and flattens it into environment-variable keys.
func loadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config yaml: %w", err)
	}

	return fc.values(), nil
}

func (fc fileConfig) values() map[string]string {
	v := map[string]string{
		"REGISTRAR_LISTEN_PORT":         fc.ListenPort,
		"REGISTRAR_SHUTDOWN_TIMEOUT":    fc.ShutdownTimeout,
		"REGISTRAR_LOG_LEVEL":           fc.LogLevel,
		"REGISTRAR_DOCKER_HOST":         fc.Docker.Host,
		"REGISTRAR_DOCKER_TIMEOUT":      fc.Docker.Timeout,
		"REGISTRAR_BACKEND_NETWORK":     fc.Discovery.Network,
		"REGISTRAR_PROXY_MARKER":        fc.Discovery.ProxyMarker,
		"REGISTRAR_HUB_MARKER":          fc.Discovery.HubMarker,
		"REGISTRAR_RECONCILE_INTERVAL":  fc.Discovery.Interval,
		"REGISTRAR_TICK_TIMEOUT":        fc.Discovery.TickTimeout,
		"REGISTRAR_NO_SERVER_MESSAGE":   fc.Routing.NoServerMessage,
		"REGISTRAR_REGISTRY_BACKEND":    fc.Registry.Backend,
		"REGISTRAR_REDIS_ADDR":          fc.Registry.Redis.Addr,
		"REGISTRAR_REDIS_USERNAME":      fc.Registry.Redis.Username,
		"REGISTRAR_REDIS_PASSWORD":      fc.Registry.Redis.Password,
		"REGISTRAR_ETCD_ENDPOINTS":      strings.Join(fc.Registry.Etcd.Endpoints, ","),
		"REGISTRAR_ETCD_DIAL_TIMEOUT":   fc.Registry.Etcd.DialTimeout,
		"REGISTRAR_ETCD_PREFIX":         fc.Registry.Etcd.Prefix,
		"REGISTRAR_ALLOWED_HOSTS":       strings.Join(fc.HTTP.AllowedHosts, ","),
		"REGISTRAR_ALLOWED_CIDRS":       strings.Join(fc.HTTP.AllowedCIDRS, ","),
	}

	if fc.PrettyLog != nil {
		v["REGISTRAR_PRETTY_LOG"] = strconv.FormatBool(*fc.PrettyLog)
	}
	if fc.Discovery.Port != 0 {
		v["REGISTRAR_BACKEND_PORT"] = strconv.Itoa(fc.Discovery.Port)
	}
	if fc.Registry.Redis.DB != nil {
		v["REGISTRAR_REDIS_DB"] = strconv.Itoa(*fc.Registry.Redis.DB)
	}
	if fc.HTTP.TrustProxy != nil {
		v["REGISTRAR_TRUST_PROXY"] = strconv.FormatBool(*fc.HTTP.TrustProxy)
	}
	if fc.HTTP.RateLimitRPS != nil {
		v["REGISTRAR_RATE_LIMIT_RPS"] = strconv.FormatFloat(*fc.HTTP.RateLimitRPS, 'f', -1, 64)
	}
	if fc.HTTP.RateLimitBurst != nil {
		v["REGISTRAR_RATE_LIMIT_BURST"] = strconv.Itoa(*fc.HTTP.RateLimitBurst)
	}

	return v
}
