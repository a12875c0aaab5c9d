package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const checkTimeout = 3 * time.Second

// Check is one named dependency health check.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// NewOpsRouter exposes /health, which runs every check concurrently, and
// /metrics for Prometheus.
func NewOpsRouter(logger *slog.Logger, checks ...Check) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/health", healthHandler(logger, checks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

func healthHandler(logger *slog.Logger, checks []Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		var mu sync.Mutex
		var wg sync.WaitGroup
		for _, c := range checks {
			wg.Add(1)
			go func() {
				defer wg.Done()
				result := "ok"
				if err := c.Ping(ctx); err != nil {
					result = err.Error()
					logger.WarnContext(ctx, "health check failed", "check", c.Name, "error", err.Error())
				}
				mu.Lock()
				defer mu.Unlock()
				resp.Checks[c.Name] = result
				if result != "ok" {
					resp.Status = "unavailable"
				}
			}()
		}
		wg.Wait()

		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.DebugContext(r.Context(), "ops request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		})
	}
}
