package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/httpserver/deps"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/scheduler"
)

const probeTimeout = 2 * time.Second

type componentStatus struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type registryStatus struct {
	componentStatus
	Backend string `json:"backend"`
	Servers *int   `json:"servers,omitempty"`
}

type statusResponse struct {
	Mode       string                     `json:"mode"`
	Activated  bool                       `json:"activated"`
	Registry   registryStatus             `json:"registry"`
	Components map[string]componentStatus `json:"components"`
	LastTick   *scheduler.TickReport      `json:"last_tick,omitempty"`
}

// Status reports the registry, every probed dependency and the last tick.
func Status(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()

		resp := statusResponse{
			Registry:   checkRegistry(ctx, d),
			Components: make(map[string]componentStatus, len(d.Probes)),
		}

		names := make([]string, 0, len(d.Probes))
		for name := range d.Probes {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			resp.Components[name] = probe(ctx, d.Probes[name])
		}

		if d.Loop != nil {
			resp.Activated = d.Loop.Activated()
			if report, ok := d.Loop.LastReport(); ok {
				resp.LastTick = &report
			}
		}

		resp.Mode = determineMode(resp)
		writeJSON(w, http.StatusOK, resp)
	}
}

// determineMode is "critical" when the registry cannot be read, "degraded"
// when a dependency is down or the last tick failed, "ok" otherwise.
func determineMode(resp statusResponse) string {
	if !resp.Registry.OK {
		return "critical"
	}
	for _, c := range resp.Components {
		if !c.OK {
			return "degraded"
		}
	}
	if resp.LastTick != nil && resp.LastTick.Error != "" {
		return "degraded"
	}
	return "ok"
}

func checkRegistry(ctx context.Context, d deps.Deps) registryStatus {
	st := registryStatus{Backend: d.RegistryBackend}
	servers, err := d.Registry.List(ctx)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	n := len(servers)
	st.OK = true
	st.Servers = &n
	return st
}

func probe(ctx context.Context, p deps.Pinger) componentStatus {
	if err := p.Ping(ctx); err != nil {
		return componentStatus{OK: false, Error: err.Error()}
	}
	return componentStatus{OK: true}
}
