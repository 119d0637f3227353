// Package httpapi exposes the Genesis pipeline over HTTP: control endpoints,
// state polling and a Server-Sent Events stream of snapshots.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ContentGenesis/internal/domain"
	"ContentGenesis/internal/ports"
	"ContentGenesis/internal/progress"
)

// Controller is the pipeline surface the API drives.
type Controller interface {
	Start(ctx context.Context) bool
	Stop() bool
	State() domain.PipelineState
	Subscribe(fn progress.Subscriber) func()
}

// Catalog lists the items a run walks.
type Catalog interface {
	Items() []domain.ContentItem
}

// Deps wires the API collaborators.
type Deps struct {
	// RunContext bounds runs started over HTTP; request contexts end with the response.
	RunContext context.Context
	Pipeline   Controller
	Results    ports.ResultStore
	Catalog    Catalog
	Logger     *slog.Logger
}

// API serves the control and observation routes.
type API struct {
	runCtx   context.Context
	pipeline Controller
	results  ports.ResultStore
	catalog  Catalog
	logger   *slog.Logger
}

// New constructs the API.
func New(deps Deps) *API {
	runCtx := deps.RunContext
	if runCtx == nil {
		runCtx = context.Background()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		runCtx:   runCtx,
		pipeline: deps.Pipeline,
		results:  deps.Results,
		catalog:  deps.Catalog,
		logger:   logger,
	}
}

// Router builds the chi mux with every route registered.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", a.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/genesis/state", a.handleState)
		r.Post("/genesis/start", a.handleStart)
		r.Post("/genesis/stop", a.handleStop)
		r.Get("/genesis/events", a.handleEvents)
		r.Get("/results/{id}", a.handleResult)
		r.Get("/catalog", a.handleCatalog)
	})
	return r
}

type controlResponse struct {
	Accepted bool                 `json:"accepted"`
	State    domain.PipelineState `json:"state"`
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.pipeline.State())
}

func (a *API) handleStart(w http.ResponseWriter, _ *http.Request) {
	accepted := a.pipeline.Start(a.runCtx)
	code := http.StatusAccepted
	if !accepted {
		code = http.StatusConflict
	}
	writeJSON(w, code, controlResponse{Accepted: accepted, State: a.pipeline.State()})
}

func (a *API) handleStop(w http.ResponseWriter, _ *http.Request) {
	accepted := a.pipeline.Stop()
	code := http.StatusOK
	if !accepted {
		code = http.StatusConflict
	}
	writeJSON(w, code, controlResponse{Accepted: accepted, State: a.pipeline.State()})
}

func (a *API) handleResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, ok, err := a.results.Get(r.Context(), id)
	if err != nil {
		a.logger.Error("result lookup failed", "item", id, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("no result for %q", id))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.catalog.Items())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
