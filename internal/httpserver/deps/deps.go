package deps

import (
	"context"
	"time"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/events"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/logger"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/metrics"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/registry"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/scheduler"
)

// Loop is the view of the reconcile loop the handlers need.
type Loop interface {
	Activated() bool
	LastReport() (scheduler.TickReport, bool)
}

// Pinger is an external dependency that can be probed.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger           logger.Logger
	StartTime        time.Time
	Version          string
	Commit           string
	BuildDate        string
	GoVersion        string
	TimeNow          func() time.Time  // for testing, defaults to time.Now
	AllowedHosts     []string          // Host headers accepted by admin endpoints
	AllowedCIDRS     []string          // IPs allowed to access admin endpoints
	TrustProxy       bool              // true if running behind a trusted reverse proxy
	RateLimitRPS     float64           // per-IP rate on player endpoints (0 = off)
	RateLimitBurst   int               // per-IP burst on player endpoints
	Registry         registry.Registry // server registry the proxy routes with
	RegistryBackend  string            // "memory" | "redis" | "etcd"
	Loop             Loop              // reconcile loop
	Bus              *events.Bus       // player events are fired here
	Metrics          *metrics.Metrics  // nil disables /metrics
	ReconcileTrigger chan struct{}     // manual reconciliation trigger
	Probes           map[string]Pinger // reported by /api/v1/status, keyed by component
}
