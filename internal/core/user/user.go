package user

import (
	"strings"

	"github.com/gosimple/slug"
)

// Role is the closed set of capabilities a helpdesk account can hold.
type Role string

const (
	RoleUser Role = "USER"
	RoleIT   Role = "IT"
)

// itDepartments holds the normalized department names whose members join the IT team.
var itDepartments = map[string]struct{}{
	"it": {},
	"ti": {},
}

func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleIT
}

// CanAdminister reports whether the role may manage tickets and users.
func (r Role) CanAdminister() bool {
	return r == RoleIT
}

func (r Role) String() string {
	return string(r)
}

// NormalizeDepartment folds case and accents so "Recepção" and "recepcao" compare equal.
func NormalizeDepartment(department string) string {
	return slug.Make(strings.TrimSpace(department))
}

func IsITDepartment(department string) bool {
	_, ok := itDepartments[NormalizeDepartment(department)]
	return ok
}

// RoleForDepartment derives the role granted at self-registration.
func RoleForDepartment(department string) Role {
	if IsITDepartment(department) {
		return RoleIT
	}
	return RoleUser
}
