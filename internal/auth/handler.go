package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/session"
	"github.com/frahmantamala/user-management/internal/transport"
	"github.com/frahmantamala/user-management/internal/transport/middleware"
)

// ServiceFactory builds an auth service bound to the session of the
// current request.
type ServiceFactory func(sessions SessionAPI) *Service

type Handler struct {
	*transport.BaseHandler
	newService ServiceFactory
	sessionTTL time.Duration
}

func NewHandler(logger *slog.Logger, newService ServiceFactory, sessionTTL time.Duration) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger),
		newService:  newService,
		sessionTTL:  sessionTTL,
	}
}

func (h *Handler) service(r *http.Request) (*Service, *session.Manager) {
	mgr := middleware.SessionFromContext(r.Context())
	if mgr == nil {
		return nil, nil
	}
	return h.newService(mgr), mgr
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto RegisterDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteAppError(w, err)
		return
	}

	svc, mgr := h.service(r)
	if svc == nil {
		h.WriteAppError(w, internal.NewInternalError("session unavailable", nil))
		return
	}

	created, err := svc.Register(r.Context(), dto.Name, dto.Email, dto.Password, dto.Options())
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	if mgr.IsLoggedIn() {
		h.setSessionCookie(w, mgr.ID())
	}
	h.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteAppError(w, err)
		return
	}

	svc, mgr := h.service(r)
	if svc == nil {
		h.WriteAppError(w, internal.NewInternalError("session unavailable", nil))
		return
	}

	ok, err := svc.Login(r.Context(), dto.Email, dto.Password)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	if !ok {
		h.WriteAppError(w, internal.ErrInvalidPassword)
		return
	}
	h.setSessionCookie(w, mgr.ID())
	h.WriteJSON(w, http.StatusOK, SessionUserDTO{LoggedIn: true})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	svc, _ := h.service(r)
	if svc == nil {
		h.WriteAppError(w, internal.NewInternalError("session unavailable", nil))
		return
	}
	if err := svc.Logout(r.Context()); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	svc, _ := h.service(r)
	if svc == nil {
		h.WriteAppError(w, internal.NewInternalError("session unavailable", nil))
		return
	}
	current, err := svc.CurrentUser(r.Context())
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, SessionUserDTO{LoggedIn: current != nil, User: current})
}

func (h *Handler) VerifyAccount(w http.ResponseWriter, r *http.Request) {
	var dto VerifyAccountDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteAppError(w, err)
		return
	}

	svc, _ := h.service(r)
	if svc == nil {
		h.WriteAppError(w, internal.NewInternalError("session unavailable", nil))
		return
	}
	if err := svc.ValidateAccountToken(r.Context(), dto.Token, dto.UserID); err != nil {
		h.WriteAppError(w, err)
		return
	}
	if err := svc.MarkVerified(r.Context(), dto.UserID); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]bool{"verified": true})
}

func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var dto EmailDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteAppError(w, err)
		return
	}

	svc, _ := h.service(r)
	if svc == nil {
		h.WriteAppError(w, internal.NewInternalError("session unavailable", nil))
		return
	}
	if err := svc.GenerateVerificationToken(r.Context(), dto.Email); err != nil {
		h.WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var dto EmailDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteAppError(w, err)
		return
	}

	svc, _ := h.service(r)
	if svc == nil {
		h.WriteAppError(w, internal.NewInternalError("session unavailable", nil))
		return
	}
	if err := svc.ForgotPassword(r.Context(), dto.Email); err != nil {
		h.WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var dto ResetPasswordDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteAppError(w, err)
		return
	}

	svc, _ := h.service(r)
	if svc == nil {
		h.WriteAppError(w, internal.NewInternalError("session unavailable", nil))
		return
	}
	if err := svc.ValidateResetToken(r.Context(), dto.Token, dto.UserID); err != nil {
		h.WriteAppError(w, err)
		return
	}
	if err := svc.ResetPassword(r.Context(), dto.UserID, dto.NewPassword); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]bool{"reset": true})
}
