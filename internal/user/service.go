package user

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/it-helpdesk/internal"
	"github.com/frahmantamala/it-helpdesk/internal/core/events"
	coreUser "github.com/frahmantamala/it-helpdesk/internal/core/user"
)

type Service struct {
	repo       Repository
	publisher  EventPublisher
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, publisher EventPublisher, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = coreUser.DefaultBCryptCost
	}
	return &Service{
		repo:       repo,
		publisher:  publisher,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *Service) GetMe(ctx context.Context, userID string) (*coreUser.User, error) {
	return s.repo.GetByID(ctx, userID)
}

// ListUsers returns every account ordered by name.
func (s *Service) ListUsers(ctx context.Context) ([]*coreUser.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, err
	}
	return users, nil
}

// CreateUser creates an account on behalf of an administrator.
func (s *Service) CreateUser(ctx context.Context, dto CreateUserDTO) (*coreUser.User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(dto.Username)
	email := strings.TrimSpace(dto.Email)

	taken, err := s.repo.IdentityTaken(ctx, username, email, "")
	if err != nil {
		s.logger.Error("failed to check identity", "error", err)
		return nil, err
	}
	if taken {
		return nil, ErrIdentityTaken
	}

	hash, err := coreUser.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	now := time.Now().UTC()
	u := &coreUser.User{
		ID:         uuid.New().String(),
		Name:       strings.TrimSpace(dto.Name),
		Username:   username,
		Email:      email,
		Department: strings.TrimSpace(dto.Department),
		Role:       dto.ResolveRole(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, u, hash); err != nil {
		s.logger.Error("failed to create user", "error", err)
		return nil, err
	}

	s.logger.Info("user created by admin", "user_id", u.ID, "role", u.Role)
	s.publish(ctx, events.NewUserChangedEvent(events.EventTypeUserCreated, u.ID))
	return u, nil
}

// UpdateUser applies an administrator's role and/or password change.
func (s *Service) UpdateUser(ctx context.Context, id string, dto UpdateUserDTO) (*coreUser.User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var changes AccountChanges
	if !blank(dto.Role) {
		role, _ := coreUser.ParseRole(*dto.Role)
		changes.Role = &role
	}
	if !blank(dto.Password) {
		hash, err := coreUser.HashPassword(*dto.Password, s.bcryptCost)
		if err != nil {
			return nil, internal.NewInternalError("failed to hash password", err)
		}
		changes.PasswordHash = &hash
	}

	u, err := s.repo.UpdateAccount(ctx, id, changes)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("failed to update user", "error", err, "user_id", id)
		}
		return nil, err
	}

	s.logger.Info("user updated by admin", "user_id", id, "role_changed", changes.Role != nil, "password_changed", changes.PasswordHash != nil)
	s.publish(ctx, events.NewUserChangedEvent(events.EventTypeUserUpdated, id))
	return u, nil
}

// DeleteUser removes the account together with all of its tickets.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("failed to delete user", "error", err, "user_id", id)
		}
		return err
	}

	s.logger.Info("user deleted", "user_id", id)
	s.publish(ctx, events.NewUserChangedEvent(events.EventTypeUserDeleted, id))
	return nil
}

// UpdateProfile edits the caller's own name, username or e-mail.
func (s *Service) UpdateProfile(ctx context.Context, userID string, dto UpdateProfileDTO) (*coreUser.User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	changes := dto.Changes()
	if changes.Username != nil || changes.Email != nil {
		taken, err := s.repo.IdentityTaken(ctx, deref(changes.Username), deref(changes.Email), userID)
		if err != nil {
			s.logger.Error("failed to check identity", "error", err)
			return nil, err
		}
		if taken {
			return nil, ErrIdentityTaken
		}
	}

	u, err := s.repo.UpdateProfile(ctx, userID, changes)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewUserChangedEvent(events.EventTypeUserUpdated, userID))
	return u, nil
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID string, dto ChangePasswordDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	current, err := s.repo.GetPasswordHash(ctx, userID)
	if err != nil {
		return err
	}
	if err := coreUser.VerifyPassword(current, dto.CurrentPassword); err != nil {
		s.logger.Warn("password change rejected: wrong current password", "user_id", userID)
		return ErrWrongPassword
	}

	hash, err := coreUser.HashPassword(dto.NewPassword, s.bcryptCost)
	if err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}
	if err := s.repo.UpdatePasswordHash(ctx, userID, hash); err != nil {
		s.logger.Error("failed to store password", "error", err, "user_id", userID)
		return err
	}

	s.logger.Info("password changed", "user_id", userID)
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish event", "error", err, "event_type", event.EventType())
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
