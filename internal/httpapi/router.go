package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type server struct {
	deps    Deps
	opt     Options
	log     *slog.Logger
	metrics *Metrics
}

// NewHandler returns the production handler: routes plus request id, access
// log, metrics and panic recovery.
func NewHandler(deps Deps, opt Options) http.Handler {
	deps = deps.withDefaults()
	s := &server{
		deps:    deps,
		opt:     opt.withDefaults(),
		log:     deps.Logger,
		metrics: deps.Metrics,
	}

	r := chi.NewRouter()
	r.Use(withRequestID)
	r.Use(withObservability(s.log, s.metrics))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", handleHealthz)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Get("/sub", s.handleSub)
	r.Get("/", s.handleSub)
	return r
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	WriteText(w, http.StatusOK, "ok\n")
}
