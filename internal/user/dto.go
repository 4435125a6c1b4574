package user

import (
	"strings"

	"github.com/frahmantamala/user-management/internal"
)

type CreateUserDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`

	Verified   *bool   `json:"verified,omitempty"`
	Visibility *string `json:"visibility,omitempty"`
	Country    *string `json:"country,omitempty"`
	Phone      *string `json:"phone,omitempty"`
}

func (d CreateUserDTO) Validate() error {
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

func (d CreateUserDTO) Options() EditOptions {
	return EditOptions{
		Verified:   d.Verified,
		Visibility: d.Visibility,
		Country:    d.Country,
		Phone:      d.Phone,
	}
}

type EditUserDTO struct {
	Name       *string `json:"name,omitempty"`
	Email      *string `json:"email,omitempty"`
	Verified   *bool   `json:"verified,omitempty"`
	Visibility *string `json:"visibility,omitempty"`
	Country    *string `json:"country,omitempty"`
	Phone      *string `json:"phone,omitempty"`
}

func (d EditUserDTO) Validate() error {
	if d.Name != nil && strings.TrimSpace(*d.Name) == "" {
		return internal.NewValidationError("name cannot be blank", internal.ErrCodeValidationFailed)
	}
	if d.Email != nil && (strings.TrimSpace(*d.Email) == "" || !strings.Contains(*d.Email, "@")) {
		return internal.NewValidationError("email must be a valid address", internal.ErrCodeValidationFailed)
	}
	return nil
}

func (d EditUserDTO) Options() EditOptions {
	return EditOptions{
		Name:       d.Name,
		Email:      d.Email,
		Verified:   d.Verified,
		Visibility: d.Visibility,
		Country:    d.Country,
		Phone:      d.Phone,
	}
}
