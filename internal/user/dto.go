package user

import (
	"strings"

	"github.com/frahmantamala/it-helpdesk/internal"
	"github.com/frahmantamala/it-helpdesk/internal/core/common/validation"
	coreUser "github.com/frahmantamala/it-helpdesk/internal/core/user"
)

// CreateUserDTO is the admin account creation payload. An empty role falls back to the department role.
type CreateUserDTO struct {
	Name       string `json:"name"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Role       string `json:"role"`
	Password   string `json:"password"`
}

func (d CreateUserDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(120)
	v.Field("username", d.Username).Required().MaxLength(60)
	v.Field("email", d.Email).Required().Email()
	v.Field("department", d.Department).Required().MaxLength(120)
	v.Field("role", d.Role).Custom(roleValidator("role"))
	v.Field("password", d.Password).Required().Password()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// ResolveRole returns the explicit role or the one derived from the department.
func (d CreateUserDTO) ResolveRole() coreUser.Role {
	if strings.TrimSpace(d.Role) == "" {
		return coreUser.RoleForDepartment(d.Department)
	}
	role, _ := coreUser.ParseRole(d.Role)
	return role
}

// UpdateUserDTO is the admin edit payload. Empty strings count as absent.
type UpdateUserDTO struct {
	Role     *string `json:"role,omitempty"`
	Password *string `json:"password,omitempty"`
}

func (d UpdateUserDTO) Validate() error {
	if blank(d.Role) && blank(d.Password) {
		return internal.NewValidationError("No data to update was provided", internal.ErrCodeNothingToUpdate)
	}
	v := validation.NewValidator()
	if !blank(d.Role) {
		v.Field("role", *d.Role).Custom(roleValidator("role"))
	}
	if !blank(d.Password) {
		v.Field("password", *d.Password).Password()
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// UpdateProfileDTO is the self-service profile edit payload. Empty strings count as absent.
type UpdateProfileDTO struct {
	Name     *string `json:"name,omitempty"`
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}

func (d UpdateProfileDTO) Validate() error {
	if blank(d.Name) && blank(d.Username) && blank(d.Email) {
		return internal.NewValidationError("No data to update was provided", internal.ErrCodeNothingToUpdate)
	}
	v := validation.NewValidator()
	if !blank(d.Name) {
		v.Field("name", *d.Name).MaxLength(120)
	}
	if !blank(d.Username) {
		v.Field("username", *d.Username).MaxLength(60)
	}
	if !blank(d.Email) {
		v.Field("email", strings.TrimSpace(*d.Email)).Email()
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// Changes trims the provided fields and drops the blank ones.
func (d UpdateProfileDTO) Changes() ProfileChanges {
	return ProfileChanges{
		Name:     trimmed(d.Name),
		Username: trimmed(d.Username),
		Email:    trimmed(d.Email),
	}
}

type ChangePasswordDTO struct {
	CurrentPassword         string `json:"currentPassword"`
	NewPassword             string `json:"newPassword"`
	NewPasswordConfirmation string `json:"newPasswordConfirmation"`
}

func (d ChangePasswordDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("currentPassword", d.CurrentPassword).Required()
	v.Field("newPassword", d.NewPassword).Required().Password()
	v.Field("newPasswordConfirmation", d.NewPasswordConfirmation).Custom(func(value interface{}) *internal.AppError {
		if value.(string) != d.NewPassword {
			return internal.NewValidationFieldError("newPasswordConfirmation", "Passwords do not match", internal.ErrCodePasswordMismatch)
		}
		return nil
	})
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func roleValidator(field string) func(interface{}) *internal.AppError {
	return func(value interface{}) *internal.AppError {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return nil
		}
		if _, ok := coreUser.ParseRole(s); !ok {
			return internal.NewValidationFieldError(field, "role must be USER or IT", internal.ErrCodeInvalidRole)
		}
		return nil
	}
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func trimmed(s *string) *string {
	if blank(s) {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
