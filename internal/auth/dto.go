package auth

import (
	"github.com/frahmantamala/it-helpdesk/internal/core/common/validation"
	coreUser "github.com/frahmantamala/it-helpdesk/internal/core/user"
)

// RegisterDTO is the self-service sign-up payload.
type RegisterDTO struct {
	Name       string `json:"name"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Password   string `json:"password"`
}

func (d RegisterDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(120)
	v.Field("username", d.Username).Required().MaxLength(60)
	v.Field("email", d.Email).Required().Email()
	v.Field("department", d.Department).Required().MaxLength(120)
	v.Field("password", d.Password).Required().Password()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks required fields.
func (d LoginDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("email", d.Email).Required()
	v.Field("password", d.Password).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type LoginResponse struct {
	User  *coreUser.User `json:"user"`
	Token string         `json:"token"`
}
