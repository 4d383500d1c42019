package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/httpserver/deps"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/httpserver/handlers"
)

func init() { Register(registerReconcile) }

func registerReconcile(r chi.Router, d deps.Deps) {
	admin(r, d).Post("/api/v1/reconcile", handlers.Reconcile(d))
}
