package auth

import (
	"context"

	coreUser "github.com/frahmantamala/it-helpdesk/internal/core/user"
)

// Credentials is an account together with its stored password hash. It never leaves the auth package.
type Credentials struct {
	User         *coreUser.User
	PasswordHash string
}

type RepositoryAPI interface {
	GetCredentialsByEmail(ctx context.Context, email string) (*Credentials, error)
	// IdentityTaken reports whether another account already uses the username or email.
	IdentityTaken(ctx context.Context, username, email string) (bool, error)
	Create(ctx context.Context, u *coreUser.User, passwordHash string) error
}

type ServiceAPI interface {
	Register(ctx context.Context, dto RegisterDTO) (*coreUser.User, error)
	Login(ctx context.Context, dto LoginDTO) (*LoginResponse, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
}
