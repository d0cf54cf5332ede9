package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/cheatsheet/internal/render"
	"github.com/starford/cheatsheet/internal/sheetservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *sheetservice.Service, renderer *render.Renderer, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, renderer)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Document.
	r.Get("/document", h.GetDocument)
	r.Delete("/document", h.Reset)
	r.Get("/export", h.Export)
	r.Post("/import", h.Import)
	r.Get("/render", h.Render)
	r.Post("/distribute", h.Distribute)

	// Pages and blocks.
	r.Post("/pages", h.AddPage)
	r.Route("/pages/{page}/columns/{col}/blocks", func(r chi.Router) {
		r.Post("/", h.AddBlock)
		r.Put("/{index}", h.EditBlock)
		r.Delete("/{index}", h.DeleteBlock)
	})
	r.Post("/moves", h.MoveBlock)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
