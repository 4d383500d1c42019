package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/httpserver/deps"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/httpserver/mw"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type entry struct {
	reg Registrar
	mws []Middleware
}

var entries []entry

// Register a registrar with optional per-route middlewares.
func Register(reg Registrar, mws ...Middleware) {
	entries = append(entries, entry{reg: reg, mws: mws})
}

// RegisterAll mounts every registrar. Called once from server.New().
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, e := range entries {
		if len(e.mws) == 0 {
			e.reg(r, d)
			continue
		}
		e.reg(r.With(e.mws...), d)
	}
}

// admin restricts a route to allowed callers and hosts, rate limited per IP.
func admin(r chi.Router, d deps.Deps) chi.Router {
	return r.With(
		mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		mw.RateLimit(mw.RateLimitConfig{
			RPS:        d.RateLimitRPS,
			Burst:      d.RateLimitBurst,
			MaxEntries: 4096,
			TrustProxy: d.TrustProxy,
		}),
	)
}
