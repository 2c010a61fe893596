package internal

import (
	"context"

	coreUser "github.com/frahmantamala/it-helpdesk/internal/core/user"
)

type ctxKey string

const ContextUserKey ctxKey = "user"

// User is the authenticated identity attached to a request by the auth middleware.
type User struct {
	ID   string
	Role coreUser.Role
}

func UserFromContext(ctx context.Context) (*User, bool) {
	if ctx == nil {
		return nil, false
	}
	u, ok := ctx.Value(ContextUserKey).(*User)
	return u, ok && u != nil
}

func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, ContextUserKey, user)
}
