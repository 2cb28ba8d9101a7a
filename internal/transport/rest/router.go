package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/danutirta/menu-access/internal/auth"
	"github.com/danutirta/menu-access/internal/menu"
	"github.com/danutirta/menu-access/internal/permission"
	"github.com/danutirta/menu-access/internal/transport/middleware"
	"github.com/danutirta/menu-access/internal/transport/swagger"
	"github.com/danutirta/menu-access/internal/user"
	"github.com/go-chi/chi"
)

// RegisterAllRoutes mounts the API. Structural menu mutations sit behind the
// root role gate; the delegation invariant itself is enforced in the
// permission service, not here.
func RegisterAllRoutes(
	router *chi.Mux,
	db *sql.DB,
	identityMW *auth.Middleware,
	menuHandler *menu.Handler,
	permissionHandler *permission.Handler,
	userHandler *user.Handler,
	allowedOrigins string,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORSWithOrigins(allowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Group(func(pr chi.Router) {
			pr.Use(identityMW.Handler)

			if userHandler != nil {
				pr.Get("/users/me", userHandler.GetCurrentUser)
			}

			if menuHandler != nil {
				pr.Route("/menus", func(mr chi.Router) {
					mr.Get("/tree", menuHandler.GetMenuTree)
					mr.Get("/flat", menuHandler.GetMenuFlat)

					// structure mutations are root-only
					mr.Group(func(sr chi.Router) {
						sr.Use(auth.RequireRole(auth.RoleRoot, logger))
						sr.Post("/", menuHandler.CreateNode)
						sr.Put("/{id}", menuHandler.UpdateNode)
						sr.Delete("/{id}", menuHandler.DeleteNode)
					})
				})
			}

			if permissionHandler != nil {
				pr.Route("/permissions", func(pmr chi.Router) {
					pmr.Get("/delegatable", permissionHandler.GetDelegatable)
					pmr.Post("/assign", permissionHandler.AssignPermission)
					pmr.Post("/revoke", permissionHandler.RevokePermission)
				})
			}
		})
	})
}
