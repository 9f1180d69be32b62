package server

import (
	"net/http"
	"time"

	"typeindex/internal/logging"
)

// New builds the HTTP server exposing search, index administration and
// credential connect/disconnect.
func New(addr string, handlers *Handlers, logger *logging.Logger) *http.Server {
	mux := http.NewServeMux()
	handlers.Register(mux)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("server listening on %s", addr)
	return srv
}
