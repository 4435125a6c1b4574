package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/user-management/internal"
)

// PermissionChecker answers whether a user holds a named permission through
// any of their roles.
type PermissionChecker interface {
	UserHasPermissionName(ctx context.Context, userID int64, permissionName string) (bool, error)
}

// RequirePermission guards a route: the session principal must hold at least
// one of the named permissions.
func RequirePermission(checker PermissionChecker, logger *slog.Logger, permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := internal.UserIDFromContext(r.Context())
			if userID == 0 {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			for _, name := range permissions {
				has, err := checker.UserHasPermissionName(r.Context(), userID, name)
				if err != nil {
					logger.Error("permission lookup failed", "user_id", userID, "permission", name, "error", err)
					http.Error(w, "internal server error", http.StatusInternalServerError)
					return
				}
				if has {
					next.ServeHTTP(w, r)
					return
				}
			}

			logger.Warn("access denied: missing permission",
				"user_id", userID,
				"required_permissions", permissions)
			http.Error(w, "forbidden: insufficient permissions", http.StatusForbidden)
		})
	}
}
