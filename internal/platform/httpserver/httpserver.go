// Package httpserver serves the operational endpoints: health and metrics.
package httpserver

import (
	"net/http"
	"time"
)

// Orchestrators and scrapers send tiny GETs, so request reads are kept short. Writes
// must outlast the health check deadline so a slow dependency still gets a 503.
const (
	readHeaderTimeout = 2 * time.Second
	readTimeout       = 5 * time.Second
	writeTimeout      = checkTimeout + 5*time.Second
	idleTimeout       = time.Minute
	maxHeaderBytes    = 8 << 10
)

// New builds the ops HTTP server.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
	}
}
