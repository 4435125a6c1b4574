package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/session"
)

// SessionCookieName carries the opaque session identifier.
const SessionCookieName = "session_id"

type sessionCtxKey struct{}

// SessionFromContext returns the request's session manager. The session
// middleware always installs one, resumed or anonymous.
func SessionFromContext(ctx context.Context) *session.Manager {
	if mgr, ok := ctx.Value(sessionCtxKey{}).(*session.Manager); ok {
		return mgr
	}
	return nil
}

func ContextWithSession(ctx context.Context, mgr *session.Manager) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, mgr)
}

// Session resumes the caller's session from the cookie and installs a
// request-scoped manager. Anonymous requests pass through with a fresh,
// unstarted manager; identity checks happen downstream.
func Session(store session.Store, ttl time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mgr := session.NewManager(store, ttl)

			if cookie, err := r.Cookie(SessionCookieName); err == nil {
				if _, err := mgr.Resume(r.Context(), cookie.Value); err != nil {
					logger.Error("failed to resume session", "error", err)
					http.Error(w, "session store unavailable", http.StatusInternalServerError)
					return
				}
			}

			ctx := ContextWithSession(r.Context(), mgr)
			if mgr.IsValid() {
				ctx = internal.ContextWithUserID(ctx, mgr.UserID())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests whose session holds no valid principal.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if internal.UserIDFromContext(r.Context()) == 0 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
