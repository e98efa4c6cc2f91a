package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/techtern/backend/internal/auth"
	"github.com/techtern/backend/internal/geocode"
	"github.com/techtern/backend/internal/internship"
	"github.com/techtern/backend/internal/transport/middleware"
	"github.com/techtern/backend/internal/transport/swagger"
	"github.com/techtern/backend/internal/user"
)

// RegisterAllRoutes wires every endpoint onto the router. Route groups apply
// the auth middleware and role requirements per route.
func RegisterAllRoutes(
	router *chi.Mux,
	db *sql.DB,
	authMW *auth.Middleware,
	userHandler *user.Handler,
	internshipHandler *internship.Handler,
	geocodeHandler *geocode.Handler,
	allowedOrigins []string,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logging(logger))

	// Liveness string at root, predating the structured health endpoints.
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("TechTern Backend Running..."))
	})

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/users", func(ur chi.Router) {
			ur.Post("/signup", userHandler.Signup)
			ur.Post("/login", userHandler.Login)
			ur.Post("/logout", userHandler.Logout)

			ur.Group(func(pr chi.Router) {
				pr.Use(authMW.Authenticate)
				pr.Get("/profile", userHandler.GetProfile)
				pr.Put("/profile", userHandler.UpdateProfile)
				pr.Put("/password", userHandler.UpdatePassword)

				pr.Group(func(ar chi.Router) {
					ar.Use(authMW.RequireRoles(auth.RoleAdmin))
					ar.Get("/", userHandler.ListUsers)
				})
			})
		})

		r.Route("/internships", func(ir chi.Router) {
			ir.Get("/", internshipHandler.List)
			ir.Get("/{id}", internshipHandler.GetByID)

			ir.Group(func(pr chi.Router) {
				pr.Use(authMW.Authenticate)

				// Ownership for update is checked inside the service, so any
				// authenticated caller may reach it.
				pr.Put("/{id}", internshipHandler.Update)

				pr.Group(func(sr chi.Router) {
					sr.Use(authMW.RequireRoles(auth.RoleStudent))
					sr.Get("/my-applications", internshipHandler.ListMyApplications)
					sr.Post("/{id}/apply", internshipHandler.Apply)
				})

				pr.Group(func(er chi.Router) {
					er.Use(authMW.RequireRoles(auth.RoleEmployer, auth.RoleAdmin))
					er.Post("/", internshipHandler.Create)
					er.Get("/my-internships", internshipHandler.ListMine)
					er.Delete("/{id}", internshipHandler.Delete)
					er.Get("/{id}/applications", internshipHandler.ListApplications)
					er.Put("/{id}/application-status", internshipHandler.UpdateApplicationStatus)
				})
			})
		})

		r.Route("/geocode", func(gr chi.Router) {
			gr.Get("/", geocodeHandler.Geocode)
			gr.Get("/reverse", geocodeHandler.Reverse)
			gr.Get("/search", geocodeHandler.Search)
		})
	})
}
