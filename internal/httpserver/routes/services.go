package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/slpwire/slpd/internal/httpserver/deps"
	"github.com/slpwire/slpd/internal/httpserver/handlers"
	"github.com/slpwire/slpd/internal/httpserver/mw"
)

func init() { Register(registerServices) }

func registerServices(r chi.Router, d deps.Deps) {
	sub := r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
	sub.Get("/api/services", handlers.ListServices(d))
	sub.Post("/api/services", handlers.RegisterService(d))
	sub.Delete("/api/services", handlers.DeregisterService(d))
}
