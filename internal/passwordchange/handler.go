package passwordchange

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/transport"
)

type ChangePasswordDTO struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (d ChangePasswordDTO) Validate() error {
	if d.CurrentPassword == "" {
		return internal.NewValidationError("current password is required", internal.ErrCodeValidationFailed)
	}
	if len(d.NewPassword) < 8 {
		return internal.NewValidationError("new password must be at least 8 characters", internal.ErrCodeValidationFailed)
	}
	return nil
}

type Handler struct {
	*transport.BaseHandler
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger),
		service:     service,
	}
}

// ChangePassword rotates the password of the session principal.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == 0 {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var dto ChangePasswordDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteAppError(w, err)
		return
	}

	if err := h.service.RequestChange(r.Context(), userID, dto.CurrentPassword, dto.NewPassword); err != nil {
		h.WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
