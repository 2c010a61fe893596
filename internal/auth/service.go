package auth

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

// ErrCredentialsNotFound is returned by repositories when no account matches the e-mail.
var ErrCredentialsNotFound = errors.New("credentials not found")

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Service is the main auth service with dependencies
type Service struct {
	userRepo       RepositoryAPI
	tokenGenerator TokenGenerator
	publisher      EventPublisher
	bcryptCost     int
	logger         *slog.Logger
}

// NewService creates a new auth service
func NewService(userRepo RepositoryAPI, tokenGen TokenGenerator, publisher EventPublisher, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = coreUser.DefaultBCryptCost
	}
	return &Service{
		userRepo:       userRepo,
		tokenGenerator: tokenGen,
		publisher:      publisher,
		bcryptCost:     bcryptCost,
		logger:         logger,
	}
}

// Register creates a self-service account. The role follows from the department.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*coreUser.User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	email := strings.TrimSpace(dto.Email)
	username := strings.TrimSpace(dto.Username)

	taken, err := s.userRepo.IdentityTaken(ctx, username, email)
	if err != nil {
		s.logger.Error("failed to check identity", "error", err)
		return nil, err
	}
	if taken {
		return nil, internal.ErrIdentityTaken
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
		Role:       coreUser.RoleForDepartment(dto.Department),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.userRepo.Create(ctx, u, hash); err != nil {
		s.logger.Error("failed to create user", "error", err)
		return nil, err
	}

	s.logger.Info("user registered", "user_id", u.ID, "role", u.Role)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.NewUserRegisteredEvent(u.ID, u.Name, u.Email, u.Department)); err != nil {
			s.logger.Error("failed to publish user registered event", "error", err, "user_id", u.ID)
		}
	}

	return u, nil
}

// Login validates credentials and returns a signed access token
func (s *Service) Login(ctx context.Context, dto LoginDTO) (*LoginResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	creds, err := s.userRepo.GetCredentialsByEmail(ctx, strings.TrimSpace(dto.Email))
	if err != nil {
		if errors.Is(err, ErrCredentialsNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to load credentials", "error", err)
		return nil, err
	}

	if err := coreUser.VerifyPassword(creds.PasswordHash, dto.Password); err != nil {
		s.logger.Warn("login rejected: wrong password", "user_id", creds.User.ID)
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokenGenerator.GenerateAccessToken(creds.User.ID, creds.User.Role)
	if err != nil {
		return nil, internal.NewInternalError("failed to sign token", err)
	}

	return &LoginResponse{User: creds.User, Token: token}, nil
}

// ValidateAccessToken validates access token and returns claims
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateToken(tokenString)
}
