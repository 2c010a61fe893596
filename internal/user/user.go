package user

import (
	"context"

	"github.com/frahmantamala/it-helpdesk/internal"
	"github.com/frahmantamala/it-helpdesk/internal/core/events"
	coreUser "github.com/frahmantamala/it-helpdesk/internal/core/user"
)

var (
	ErrNotFound      = internal.ErrUserNotFound
	ErrIdentityTaken = internal.ErrIdentityTaken
	ErrWrongPassword = internal.ErrWrongPassword
)

// AccountChanges carries the fields an administrator may overwrite. Nil means unchanged.
type AccountChanges struct {
	Role         *coreUser.Role
	PasswordHash *string
}

// ProfileChanges carries the fields a user may edit on their own account. Nil means unchanged.
type ProfileChanges struct {
	Name     *string
	Username *string
	Email    *string
}

type Repository interface {
	GetByID(ctx context.Context, id string) (*coreUser.User, error)
	GetPasswordHash(ctx context.Context, id string) (string, error)
	List(ctx context.Context) ([]*coreUser.User, error)
	// IdentityTaken reports whether another account (excludeID aside) uses the username or e-mail.
	IdentityTaken(ctx context.Context, username, email, excludeID string) (bool, error)
	Create(ctx context.Context, u *coreUser.User, passwordHash string) error
	UpdateAccount(ctx context.Context, id string, changes AccountChanges) (*coreUser.User, error)
	UpdateProfile(ctx context.Context, id string, changes ProfileChanges) (*coreUser.User, error)
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	// Delete removes the user and every ticket they own in one transaction.
	Delete(ctx context.Context, id string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type ServiceAPI interface {
	GetMe(ctx context.Context, userID string) (*coreUser.User, error)
	ListUsers(ctx context.Context) ([]*coreUser.User, error)
	CreateUser(ctx context.Context, dto CreateUserDTO) (*coreUser.User, error)
	UpdateUser(ctx context.Context, id string, dto UpdateUserDTO) (*coreUser.User, error)
	DeleteUser(ctx context.Context, id string) error
	UpdateProfile(ctx context.Context, userID string, dto UpdateProfileDTO) (*coreUser.User, error)
	ChangePassword(ctx context.Context, userID string, dto ChangePasswordDTO) error
}
