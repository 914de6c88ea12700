package devserver

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Init builds the router. requestTimeout bounds REST requests; the
// websocket route is exempt.
func (h *Handler) Init(requestTimeout time.Duration) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)

	router.Get("/ws", h.push.serveWS)

	router.Group(func(r chi.Router) {
		r.Use(h.withLogging)
		if requestTimeout > 0 {
			r.Use(middleware.Timeout(requestTimeout))
		}
		if h.signKey != "" {
			r.Use(h.auth)
		}

		r.Route("/api/{collection}", func(r chi.Router) {
			r.Use(h.withResource)

			r.Get("/", h.list)
			r.Post("/", h.create)
			r.Put("/", h.replace)

			r.Get("/{id}", h.get)
			r.Put("/{id}", h.update)
			r.Delete("/{id}", h.delete)
		})
	})

	return router
}
