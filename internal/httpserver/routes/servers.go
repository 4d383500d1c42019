package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/httpserver/deps"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/httpserver/handlers"
)

func init() { Register(registerServers) }

func registerServers(r chi.Router, d deps.Deps) {
	a := admin(r, d)
	a.Get("/api/v1/servers", handlers.Servers(d))
	a.Get("/api/v1/status", handlers.Status(d))
}
