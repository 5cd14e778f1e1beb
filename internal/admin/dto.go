package admin

import (
	"strings"

	errors "github.com/frahmantamala/grievance-portal/internal"
	"github.com/frahmantamala/grievance-portal/internal/core/common/validation"
)

const (
	minUsernameLength = 4
	minPasswordLength = 6
)

type RegisterDTO struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword,omitempty"`
	Department      string `json:"department"`
	Email           string `json:"email"`
}

func (d *RegisterDTO) Normalize() {
	d.Username = strings.TrimSpace(d.Username)
	d.Password = strings.TrimSpace(d.Password)
	d.ConfirmPassword = strings.TrimSpace(d.ConfirmPassword)
	d.Department = strings.TrimSpace(d.Department)
	d.Email = strings.TrimSpace(d.Email)
}

func (d RegisterDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("username", d.Username).Required().MinLength(minUsernameLength).MaxLength(64)
	v.Field("password", d.Password).Required().MinLength(minPasswordLength).MaxLength(72)
	v.Field("confirmPassword", d.ConfirmPassword).Custom(func(value interface{}) *errors.AppError {
		if confirm, _ := value.(string); confirm != "" && confirm != d.Password {
			return errors.NewValidationFieldError("confirmPassword", "Passwords do not match", errors.ErrCodePasswordMismatch)
		}
		return nil
	})
	v.Field("email", d.Email).Required().MaxLength(254)
	v.Field("department", d.Department).Required()
	return v.Validate()
}

type LoginDTO struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Department string `json:"department"`
}

func (d *LoginDTO) Normalize() {
	d.Username = strings.TrimSpace(d.Username)
	d.Password = strings.TrimSpace(d.Password)
	d.Department = strings.TrimSpace(d.Department)
}

func (d LoginDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("username", d.Username).Required()
	v.Field("password", d.Password).Required()
	v.Field("department", d.Department).Required()
	return v.Validate()
}

type AdminResponse struct {
	Username   string `json:"username"`
	Department string `json:"department"`
	Email      string `json:"email"`
}
