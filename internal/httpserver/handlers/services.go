package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/slpwire/slpd/internal/httpserver/deps"
	"github.com/slpwire/slpd/internal/logger"
	"github.com/slpwire/slpd/internal/slp"
)

type registerRequest struct {
	URL      string `json:"url"`
	Scopes   string `json:"scopes,omitempty"`
	Lifetime uint16 `json:"lifetime,omitempty"`
}

type serviceView struct {
	ServiceType string `json:"service_type"`
	URL         string `json:"url"`
	Scopes      string `json:"scopes"`
	Lifetime    uint16 `json:"lifetime"`
}

// ListServices returns every live registration with its remaining
// lifetime.
func ListServices(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := d.Registry.All()
		views := make([]serviceView, 0, len(entries))
		for _, entry := range entries {
			views = append(views, serviceView{
				ServiceType: entry.ServiceType,
				URL:         entry.URL,
				Scopes:      entry.Scopes.String(),
				Lifetime:    entry.Lifetime,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(views)
	}
}

// RegisterService registers or refreshes one service from a JSON body.
func RegisterService(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() { _ = r.Body.Close() }()

		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Lifetime == 0 {
			req.Lifetime = slp.DefaultLifetime
		}

		entry, err := slp.NewServiceEntry(req.Scopes, req.URL, req.Lifetime)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := d.Registry.Register(entry); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		d.Logger.Info("service registered via admin api",
			logger.String("url", entry.URL),
			logger.String("scopes", entry.Scopes.String()))

		// Persist (best effort).
		if d.Store != nil {
			if err := d.Store.SaveEntry(r.Context(), entry); err != nil {
				d.Logger.Warn("failed to persist registration",
					logger.String("url", entry.URL),
					logger.Error(err))
			}
		}

		w.WriteHeader(http.StatusCreated)
	}
}

// DeregisterService removes the registration named by the url query
// parameter. Deregistering something already gone is fine.
func DeregisterService(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url := r.URL.Query().Get("url")
		if url == "" {
			http.Error(w, "missing url parameter", http.StatusBadRequest)
			return
		}

		if err := d.Registry.Deregister(url); err != nil && !errors.Is(err, slp.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		d.Logger.Info("service deregistered via admin api",
			logger.String("url", url))

		if d.Store != nil {
			if err := d.Store.DeleteEntry(r.Context(), url); err != nil {
				d.Logger.Warn("failed to delete persisted registration",
					logger.String("url", url),
					logger.Error(err))
			}
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
