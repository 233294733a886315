package webserver

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voicelearn/vleval/internal/webapi"
)

// registerRoutes sets up the API, websocket, and metrics routes.
func registerRoutes(mux *http.ServeMux, cfg Config) {
	webapi.RegisterRoutes(mux, cfg.Store, cfg.Logger)
	mux.HandleFunc("GET /ws", cfg.Hub.HandleWS)
	mux.Handle("GET /metrics", promhttp.Handler())
}
