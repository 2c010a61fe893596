package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	ticketDatamodel "github.com/frahmantamala/it-helpdesk/internal/core/datamodel/ticket"
	userDatamodel "github.com/frahmantamala/it-helpdesk/internal/core/datamodel/user"
	coreUser "github.com/frahmantamala/it-helpdesk/internal/core/user"
	"github.com/frahmantamala/it-helpdesk/internal/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*coreUser.User, error) {
	m, err := r.take(r.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	return coreUser.FromDataModel(m), nil
}

func (r *UserRepository) GetPasswordHash(ctx context.Context, id string) (string, error) {
	m, err := r.take(r.db.WithContext(ctx), id)
	if err != nil {
		return "", err
	}
	return m.PasswordHash, nil
}

func (r *UserRepository) List(ctx context.Context) ([]*coreUser.User, error) {
	var models []*userDatamodel.User
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return coreUser.FromDataModelSlice(models), nil
}

func (r *UserRepository) IdentityTaken(ctx context.Context, username, email, excludeID string) (bool, error) {
	if username == "" && email == "" {
		return false, nil
	}

	match := r.db.Where("1 = 0")
	if username != "" {
		match = match.Or("username = ?", username)
	}
	if email != "" {
		match = match.Or("email = ?", email)
	}

	query := r.db.WithContext(ctx).Model(&userDatamodel.User{}).Where(match)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *UserRepository) Create(ctx context.Context, u *coreUser.User, passwordHash string) error {
	err := r.db.WithContext(ctx).Create(coreUser.ToDataModel(u, passwordHash)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return user.ErrIdentityTaken
	}
	return err
}

func (r *UserRepository) UpdateAccount(ctx context.Context, id string, changes user.AccountChanges) (*coreUser.User, error) {
	updates := map[string]interface{}{}
	if changes.Role != nil {
		updates["role"] = string(*changes.Role)
	}
	if changes.PasswordHash != nil {
		updates["password_hash"] = *changes.PasswordHash
	}
	return r.update(ctx, id, updates)
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, changes user.ProfileChanges) (*coreUser.User, error) {
	updates := map[string]interface{}{}
	if changes.Name != nil {
		updates["name"] = *changes.Name
	}
	if changes.Username != nil {
		updates["username"] = *changes.Username
	}
	if changes.Email != nil {
		updates["email"] = *changes.Email
	}
	return r.update(ctx, id, updates)
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	_, err := r.update(ctx, id, map[string]interface{}{"password_hash": passwordHash})
	return err
}

// Delete removes the owner's tickets before the user row so the outcome does not depend on the
// schema's cascade.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_id = ?", id).Delete(&ticketDatamodel.Ticket{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&userDatamodel.User{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return user.ErrNotFound
		}
		return nil
	})
}

func (r *UserRepository) update(ctx context.Context, id string, updates map[string]interface{}) (*coreUser.User, error) {
	var updated *userDatamodel.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&userDatamodel.User{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
				return user.ErrIdentityTaken
			}
			return result.Error
		}
		if result.RowsAffected == 0 {
			return user.ErrNotFound
		}

		m, err := r.take(tx, id)
		if err != nil {
			return err
		}
		updated = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return coreUser.FromDataModel(updated), nil
}

func (r *UserRepository) take(db *gorm.DB, id string) (*userDatamodel.User, error) {
	var m userDatamodel.User
	if err := db.Where("id = ?", id).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}
