package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/httpserver/deps"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/httpserver/handlers"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/httpserver/mw"
)

func init() { Register(registerPlayers) }

// Every request comes from the proxy, so a per-IP limit would drop routing
// decisions during a mass kick. Only the CIDR guard applies.
func registerPlayers(r chi.Router, d deps.Deps) {
	r.Route("/api/v1/players", func(r chi.Router) {
		r.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
		r.Post("/initial-server", handlers.InitialServer(d))
		r.Post("/kicked", handlers.Kicked(d))
	})
}
