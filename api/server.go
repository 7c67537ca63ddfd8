/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the frontend
  5. Gate:       Session token check (protected group only)

ROUTE GROUPS:
  /api/auth/*           Password and sessions (public, except change)
  /api/calendar/*       Holidays and working hours (public)
  /api/absences/*       Absence ledger
  /api/hour-bank        Hour bank
  /api/notes/*          Day notes
  /api/stats            Statistics
  /api/reports/*        Monthly reports
  /api/backup/*         Remote backup
  /*                    Static files (frontend), when StaticDir exists

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/tracker/serve.go: Server startup
*/
package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions configures the outer surface of the router.
type RouterOptions struct {
	CORSOrigins []string
	StaticDir   string // built frontend; skipped when missing
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
	}))

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			r.Get("/auth/status", h.AuthStatus)
			r.Post("/auth/password", h.SetPassword)
			r.Post("/auth/login", h.Login)

			r.Get("/calendar/holidays", h.ListHolidays)
			r.Get("/calendar/{year}/{month}", h.GetMonth)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(h.Gate.Middleware)

			r.Put("/auth/password", h.ChangePassword)

			r.Route("/absences", func(r chi.Router) {
				r.Get("/", h.ListAbsences)
				r.Post("/", h.CreateAbsence)
				r.Delete("/", h.ClearAbsences)
				r.Post("/batch", h.CreateAbsenceBatch)
				r.Delete("/{id}", h.DeleteAbsence)
			})

			r.Get("/hour-bank", h.GetHourBank)
			r.Put("/hour-bank", h.UpdateHourBank)

			r.Route("/notes", func(r chi.Router) {
				r.Get("/", h.ListNotes)
				r.Put("/", h.ReplaceNotes)
				r.Post("/import", h.ImportNotes)
				r.Put("/{date}", h.UpdateNote)
			})

			r.Get("/stats", h.GetStats)

			r.Route("/reports/{year}/{month}", func(r chi.Router) {
				r.Get("/", h.GetMonthlyReport)
				r.Get("/xlsx", h.ExportMonthlyReport)
			})

			r.Route("/backup", func(r chi.Router) {
				r.Post("/save", h.SaveBackup)
				r.Post("/load", h.LoadBackup)
			})
		})
	})

	if opts.StaticDir != "" {
		if _, err := os.Stat(opts.StaticDir); err == nil {
			serveStatic(r, opts.StaticDir)
		}
	}

	return r
}

// serveStatic serves the built frontend, falling back to index.html for
// client-side routing.
func serveStatic(r chi.Router, dir string) {
	fileServer := http.FileServer(http.Dir(dir))
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		fullPath := filepath.Join(dir, filepath.Clean(r.URL.Path))
		if _, err := os.Stat(fullPath); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}
