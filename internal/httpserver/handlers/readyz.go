package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/slpwire/slpd/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Redis string `json:"redis,omitempty"`
}

func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		// Persistence is best effort; redis being down degrades the
		// agent but does not make it unready.
		redisState := ""
		if d.RedisClient != nil {
			redisState = "ok"
			if err := d.RedisClient.Ping(r.Context()).Err(); err != nil {
				redisState = "down"
			}
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(readyzResponse{
			Ready: true,
			Redis: redisState,
		})
	}
}
