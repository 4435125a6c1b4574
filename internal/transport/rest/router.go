package rest

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/user-management/internal/auth"
	"github.com/frahmantamala/user-management/internal/passwordchange"
	"github.com/frahmantamala/user-management/internal/rbac"
	"github.com/frahmantamala/user-management/internal/session"
	"github.com/frahmantamala/user-management/internal/transport/middleware"
	"github.com/frahmantamala/user-management/internal/user"
)

// Permissions gating the administrative route groups. The seeder grants
// all three to the Admin role.
const (
	PermManageUsers       = "manage_users"
	PermManageRoles       = "manage_roles"
	PermManagePermissions = "manage_permissions"
)

func RegisterAllRoutes(
	router *chi.Mux,
	db *sqlx.DB,
	sessionStore session.Store,
	sessionTTL time.Duration,
	authHandler *auth.Handler,
	userHandler *user.Handler,
	rbacHandler *rbac.Handler,
	rbacService *rbac.Service,
	passwordHandler *passwordchange.Handler,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logging(logger))
	router.Use(middleware.Session(sessionStore, sessionTTL, logger))

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/register", authHandler.Register)
			sr.Post("/login", authHandler.Login)
			sr.Post("/logout", authHandler.Logout)
			sr.Get("/me", authHandler.Me)
			sr.Post("/verify", authHandler.VerifyAccount)
			sr.Post("/verify/resend", authHandler.ResendVerification)
			sr.Post("/password/forgot", authHandler.ForgotPassword)
			sr.Post("/password/reset", authHandler.ResetPassword)
		})

		// Routes for the logged-in principal.
		r.Group(func(pr chi.Router) {
			pr.Use(middleware.RequireAuth)
			pr.Post("/password/change", passwordHandler.ChangePassword)
		})

		// User administration.
		r.Group(func(ar chi.Router) {
			ar.Use(middleware.RequireAuth)
			ar.Use(middleware.RequirePermission(rbacService, logger, PermManageUsers))

			ar.Post("/users", userHandler.Create)
			ar.Get("/users", userHandler.List)
			ar.Get("/users/{id}", userHandler.Get)
			ar.Put("/users/{id}", userHandler.Edit)
			ar.Delete("/users/{id}", userHandler.Delete)
			ar.Get("/users/{id}/roles", userHandler.Roles)
		})

		// Role administration, including user-role assignment.
		r.Group(func(ar chi.Router) {
			ar.Use(middleware.RequireAuth)
			ar.Use(middleware.RequirePermission(rbacService, logger, PermManageRoles))

			ar.Post("/roles", rbacHandler.CreateRole)
			ar.Get("/roles", rbacHandler.ListRoles)
			ar.Put("/roles/{id}", rbacHandler.EditRole)
			ar.Delete("/roles/{id}", rbacHandler.DeleteRole)
			ar.Get("/roles/{id}/permissions", rbacHandler.RolePermissions)
			ar.Post("/roles/{id}/permissions/{permissionID}", rbacHandler.AttachPermission)
			ar.Delete("/roles/{id}/permissions/{permissionID}", rbacHandler.DetachPermission)

			ar.Post("/users/{id}/roles", rbacHandler.AssignRoles)
			ar.Delete("/users/{id}/roles", rbacHandler.RemoveRoles)
		})

		// Permission administration.
		r.Group(func(ar chi.Router) {
			ar.Use(middleware.RequireAuth)
			ar.Use(middleware.RequirePermission(rbacService, logger, PermManagePermissions))

			ar.Post("/permissions", rbacHandler.CreatePermission)
			ar.Get("/permissions", rbacHandler.ListPermissions)
			ar.Put("/permissions/{id}", rbacHandler.EditPermission)
			ar.Delete("/permissions/{id}", rbacHandler.DeletePermission)
		})
	})
}
