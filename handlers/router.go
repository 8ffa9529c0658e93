package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterOptions carries the deployment-specific knobs the router needs.
type RouterOptions struct {
	// AllowedHosts restricts which Host headers are accepted. Empty
	// means no restriction (debug and test runs).
	AllowedHosts []string
}

// NewRouter wires the api/v1 routes and baseline middleware around a
// Handler.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.Log))
	r.Use(middleware.Recoverer)
	if len(opts.AllowedHosts) > 0 {
		r.Use(allowHosts(opts.AllowedHosts))
	}

	// Health endpoint for infra checks; deliberately outside api/v1.
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/todolist", func(r chi.Router) {
			r.Get("/", h.ListLists)
			r.Post("/", h.CreateList)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", h.GetList)
				r.Put("/", h.PutList)
				r.Patch("/", h.PatchList)
				r.Delete("/", h.DeleteList)
				r.Get("/with_items", h.GetListWithItems)
			})
		})
		r.Route("/todoitem", func(r chi.Router) {
			r.Get("/", h.ListItems)
			r.Post("/", h.CreateItem)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", h.GetItem)
				r.Put("/", h.PutItem)
				r.Patch("/", h.PatchItem)
				r.Delete("/", h.DeleteItem)
			})
		})
	})

	return r
}
