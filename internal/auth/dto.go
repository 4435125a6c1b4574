package auth

import (
	"strings"

	"github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/user"
)

type RegisterDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`

	Verified   *bool   `json:"verified,omitempty"`
	Visibility *string `json:"visibility,omitempty"`
	Country    *string `json:"country,omitempty"`
	Phone      *string `json:"phone,omitempty"`
}

func (d RegisterDTO) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return internal.NewValidationError("name is required", internal.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(d.Email) == "" || !strings.Contains(d.Email, "@") {
		return internal.NewValidationError("a valid email is required", internal.ErrCodeValidationFailed)
	}
	if len(d.Password) < 8 {
		return internal.NewValidationError("password must be at least 8 characters", internal.ErrCodeValidationFailed)
	}
	return nil
}

func (d RegisterDTO) Options() RegisterOptions {
	return RegisterOptions{
		Verified:   d.Verified,
		Visibility: d.Visibility,
		Country:    d.Country,
		Phone:      d.Phone,
	}
}

type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d LoginDTO) Validate() error {
	if strings.TrimSpace(d.Email) == "" || d.Password == "" {
		return internal.NewValidationError("email and password are required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type VerifyAccountDTO struct {
	Token  string `json:"token"`
	UserID int64  `json:"user_id"`
}

func (d VerifyAccountDTO) Validate() error {
	if d.Token == "" || d.UserID == 0 {
		return internal.NewValidationError("token and user_id are required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type EmailDTO struct {
	Email string `json:"email"`
}

func (d EmailDTO) Validate() error {
	if strings.TrimSpace(d.Email) == "" {
		return internal.NewValidationError("email is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type ResetPasswordDTO struct {
	Token       string `json:"token"`
	UserID      int64  `json:"user_id"`
	NewPassword string `json:"new_password"`
}

func (d ResetPasswordDTO) Validate() error {
	if d.Token == "" || d.UserID == 0 {
		return internal.NewValidationError("token and user_id are required", internal.ErrCodeValidationFailed)
	}
	if len(d.NewPassword) < 8 {
		return internal.NewValidationError("new password must be at least 8 characters", internal.ErrCodeValidationFailed)
	}
	return nil
}

type SessionUserDTO struct {
	LoggedIn bool       `json:"logged_in"`
	User     *user.User `json:"user,omitempty"`
}
