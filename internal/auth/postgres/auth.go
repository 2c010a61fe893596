package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/it-helpdesk/internal"
	"github.com/frahmantamala/it-helpdesk/internal/auth"
	userDatamodel "github.com/frahmantamala/it-helpdesk/internal/core/datamodel/user"
	coreUser "github.com/frahmantamala/it-helpdesk/internal/core/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetCredentialsByEmail(ctx context.Context, email string) (*auth.Credentials, error) {
	var m userDatamodel.User
	err := r.db.WithContext(ctx).Where("email = ?", email).Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrCredentialsNotFound
		}
		return nil, err
	}
	return &auth.Credentials{
		User:         coreUser.FromDataModel(&m),
		PasswordHash: m.PasswordHash,
	}, nil
}

func (r *Repository) IdentityTaken(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) Create(ctx context.Context, u *coreUser.User, passwordHash string) error {
	err := r.db.WithContext(ctx).Create(coreUser.ToDataModel(u, passwordHash)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return internal.ErrIdentityTaken
	}
	return err
}
