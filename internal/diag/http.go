package diag

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pixil98/go-dungeon/internal/server"
	"github.com/pixil98/go-log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusSource is the read-only view of the world the diagnostic API
// serves. Snapshots must not disturb game state.
type StatusSource interface {
	Snapshot() server.Status
	Census() []server.RoomCensus
}

// HttpServer serves the diagnostic API. It is a worker: Start blocks
// until the context is cancelled.
type HttpServer struct {
	addr    string
	origins []string
	source  StatusSource
	metrics *Metrics
}

func NewHttpServer(addr string, origins []string, source StatusSource, metrics *Metrics) *HttpServer {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &HttpServer{
		addr:    addr,
		origins: origins,
		source:  source,
		metrics: metrics,
	}
}

func (h *HttpServer) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    h.addr,
		Handler: h.router(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	log.GetLogger(ctx).Infof("diagnostic server listening on %s", h.addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("serving diagnostics: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (h *HttpServer) router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", h.handleStatus)
		r.Get("/rooms", h.handleRooms)
	})

	if h.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.metrics.Registry(), promhttp.HandlerOpts{}))
	}

	return r
}

func (h *HttpServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.source.Snapshot())
}

func (h *HttpServer) handleRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.source.Census())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
