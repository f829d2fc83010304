package httpx

import (
	"log/slog"
	"net/http"

	"github.com/MrCreosote/user-and-job-state/internal/ports"
	"github.com/MrCreosote/user-and-job-state/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Jobs     *service.JobService
	State    *service.UserStateService // Optional: state routes are omitted when nil
	Resolver ports.IdentityResolver
	// Ready lists the dependencies checked by /readyz.
	Ready        map[string]Pinger
	MaxBodyBytes int64
	Logger       *slog.Logger
}

// NewRouter creates the HTTP handler serving the API.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	api := http.NewServeMux()
	registerJobRoutes(api, &JobHandlers{Svc: services.Jobs, Logger: logger})
	if services.State != nil {
		registerStateRoutes(api, &StateHandlers{Svc: services.State, Logger: logger})
	}

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /readyz", readyHandler(services.Ready))
	mux.Handle("/api/", RequireIdentity(services.Resolver, logger)(api))

	return Chain(mux,
		Recover(logger),
		RequestID(),
		Logging(logger),
		LimitBody(services.MaxBodyBytes),
	)
}

func registerJobRoutes(mux *http.ServeMux, h *JobHandlers) {
	mux.HandleFunc("POST /api/v1/jobs", h.CreateJob)
	mux.HandleFunc("GET /api/v1/jobs", h.ListJobs)
	mux.HandleFunc("GET /api/v1/jobs/{id}", h.GetJob)
	mux.HandleFunc("DELETE /api/v1/jobs/{id}", h.DeleteJob)
	mux.HandleFunc("POST /api/v1/jobs/{id}/start", h.StartJob)
	mux.HandleFunc("POST /api/v1/jobs/{id}/update", h.UpdateJob)
	mux.HandleFunc("POST /api/v1/jobs/{id}/complete", h.CompleteJob)
	mux.HandleFunc("POST /api/v1/jobs/{id}/cancel", h.CancelJob)
	mux.HandleFunc("POST /api/v1/jobs/{id}/share", h.ShareJob)
	mux.HandleFunc("POST /api/v1/jobs/{id}/unshare", h.UnshareJob)
	mux.HandleFunc("GET /api/v1/services", h.ListServices)
}

func registerStateRoutes(mux *http.ServeMux, h *StateHandlers) {
	mux.HandleFunc("GET /api/v1/state", h.ListStateServices)
	mux.HandleFunc("GET /api/v1/state/{service}", h.ListState)
	mux.HandleFunc("HEAD /api/v1/state/{service}/{key}", h.HasState)
	mux.HandleFunc("GET /api/v1/state/{service}/{key}", h.GetState)
	mux.HandleFunc("PUT /api/v1/state/{service}/{key}", h.SetState)
	mux.HandleFunc("DELETE /api/v1/state/{service}/{key}", h.RemoveState)
}
