package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/it-helpdesk/internal/core/datamodel/user"
)

// User is the account view shared by the auth and user administration packages.
// It deliberately has no password field.
type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Department string    `json:"department"`
	Role       Role      `json:"role"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ToDataModel builds the persistence row; the password hash is supplied separately.
func ToDataModel(u *User, passwordHash string) *userDatamodel.User {
	return &userDatamodel.User{
		ID:            u.ID,
		Name:          u.Name,
		Username:      u.Username,
		Email:         u.Email,
		Department:    u.Department,
		DepartmentKey: NormalizeDepartment(u.Department),
		PasswordHash:  passwordHash,
		Role:          string(u.Role),
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func FromDataModel(m *userDatamodel.User) *User {
	return &User{
		ID:         m.ID,
		Name:       m.Name,
		Username:   m.Username,
		Email:      m.Email,
		Department: m.Department,
		Role:       Role(m.Role),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func FromDataModelSlice(models []*userDatamodel.User) []*User {
	result := make([]*User, len(models))
	for i, m := range models {
		result[i] = FromDataModel(m)
	}
	return result
}
