package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/karthikraju/granary-backend/pkg/config"
	"github.com/karthikraju/granary-backend/pkg/db/models"
	"github.com/karthikraju/granary-backend/pkg/enums"
	pkgerrors "github.com/karthikraju/granary-backend/pkg/errors"
	"github.com/karthikraju/granary-backend/pkg/security"
)

// Service defines the user management operations exposed to controllers.
type Service interface {
	Create(ctx context.Context, actorRole enums.Role, input CreateUserInput) (*UserDTO, error)
	Update(ctx context.Context, actorRole enums.Role, id uuid.UUID, input UpdateUserInput) (*UserDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	List(ctx context.Context) ([]UserDTO, error)
	Deactivate(ctx context.Context, actorRole enums.Role, id uuid.UUID) error
}

type repository interface {
	Create(ctx context.Context, dto CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id uuid.UUID, dto UpdateUserDTO) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type service struct {
	repo        repository
	passwordCfg config.PasswordConfig
}

// CreateUserInput carries the controller-facing fields for creating a user.
type CreateUserInput struct {
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=8"`
	FullName string     `json:"full_name" validate:"required"`
	Phone    *string    `json:"phone"`
	Role     enums.Role `json:"role" validate:"required"`
}

// UpdateUserInput carries the mutable fields; nil means unchanged.
type UpdateUserInput struct {
	FullName *string     `json:"full_name"`
	Phone    *string     `json:"phone"`
	Role     *enums.Role `json:"role"`
	IsActive *bool       `json:"is_active"`
}

// NewService builds a user management service.
func NewService(repo repository, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository is required")
	}
	return &service{repo: repo, passwordCfg: passwordCfg}, nil
}

func (s *service) Create(ctx context.Context, actorRole enums.Role, input CreateUserInput) (*UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	role := input.Role
	if role == "" {
		role = enums.RoleStoreUser
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	if err := ensureActorOutranks(actorRole, role); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup email")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.repo.Create(ctx, CreateUserDTO{
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(input.FullName),
		Phone:        input.Phone,
		Role:         role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return FromModel(user), nil
}

func (s *service) Update(ctx context.Context, actorRole enums.Role, id uuid.UUID, input UpdateUserInput) (*UserDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if err := ensureActorOutranks(actorRole, existing.Role); err != nil {
		return nil, err
	}
	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
		}
		if err := ensureActorOutranks(actorRole, *input.Role); err != nil {
			return nil, err
		}
	}

	user, err := s.repo.Update(ctx, id, UpdateUserDTO{
		FullName: input.FullName,
		Phone:    input.Phone,
		Role:     input.Role,
		IsActive: input.IsActive,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	return FromModel(user), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return FromModel(user), nil
}

func (s *service) List(ctx context.Context) ([]UserDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Deactivate(ctx context.Context, actorRole enums.Role, id uuid.UUID) error {
	inactive := false
	_, err := s.Update(ctx, actorRole, id, UpdateUserInput{IsActive: &inactive})
	return err
}

// ensureActorOutranks blocks an admin from touching super admin accounts.
func ensureActorOutranks(actor, target enums.Role) error {
	if target == enums.RoleSuperAdmin && actor != enums.RoleSuperAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "super admin accounts can only be managed by a super admin")
	}
	return nil
}
