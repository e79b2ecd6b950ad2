package service

import (
	"context"
	"fmt"
	"strings"

	"anoa.com/taskmanager/internal/entity"
	"anoa.com/taskmanager/internal/modules/user/dto"
	"anoa.com/taskmanager/internal/modules/user/repository"
	"anoa.com/taskmanager/internal/policy"
	"anoa.com/taskmanager/pkg/apperror"
	"github.com/google/uuid"
)

type UserService interface {
	// List returns every user to administrators and only developers to everyone else.
	List(ctx context.Context, actor policy.Actor) ([]*entity.User, error)
	ListByRole(ctx context.Context, role entity.Role) ([]*entity.User, error)
	Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*entity.User, error)
	Create(ctx context.Context, actor policy.Actor, req dto.CreateUserRequest) (*entity.User, error)
	Update(ctx context.Context, actor policy.Actor, id uuid.UUID, req dto.UpdateUserRequest) (*entity.User, error)
	Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error
}

type userService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) List(ctx context.Context, actor policy.Actor) ([]*entity.User, error) {
	if actor.IsAdmin() {
		return s.repo.FindAll(ctx)
	}
	return s.repo.FindAll(ctx, entity.RoleDeveloper)
}

func (s *userService) ListByRole(ctx context.Context, role entity.Role) ([]*entity.User, error) {
	if !role.Valid() {
		return nil, apperror.NewValidationError("role", "the selected role is invalid")
	}
	return s.repo.FindAll(ctx, role)
}

func (s *userService) Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("user: %w", err)
	}
	if err := policy.Enforce(actor, policy.ActionView, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Create(ctx context.Context, actor policy.Actor, req dto.CreateUserRequest) (*entity.User, error) {
	if err := policy.Enforce(actor, policy.ActionCreate, policy.UserResource{}); err != nil {
		return nil, err
	}

	role, err := entity.ParseRole(req.Role)
	if err != nil {
		return nil, apperror.NewValidationError("role", "the selected role is invalid")
	}

	email := normalizeEmail(req.Email)
	if err := s.ensureEmailAvailable(ctx, email, uuid.Nil); err != nil {
		return nil, err
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, actor policy.Actor, id uuid.UUID, req dto.UpdateUserRequest) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("user: %w", err)
	}
	if err := policy.Enforce(actor, policy.ActionUpdate, user); err != nil {
		return nil, err
	}

	role, err := entity.ParseRole(req.Role)
	if err != nil {
		return nil, apperror.NewValidationError("role", "the selected role is invalid")
	}

	email := normalizeEmail(req.Email)
	if err := s.ensureEmailAvailable(ctx, email, user.ID); err != nil {
		return nil, err
	}

	if req.Password != nil {
		if req.PasswordConfirmation == nil || *req.PasswordConfirmation != *req.Password {
			return nil, apperror.NewValidationError("password_confirmation", "the password field confirmation does not match")
		}
		hash, err := hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	user.Name = strings.TrimSpace(req.Name)
	user.Email = email
	user.Role = role

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("user: %w", err)
	}
	if err := policy.Enforce(actor, policy.ActionDelete, user); err != nil {
		return err
	}
	return s.repo.Delete(ctx, user.ID)
}

func (s *userService) ensureEmailAvailable(ctx context.Context, email string, exceptID uuid.UUID) error {
	taken, err := s.repo.EmailTaken(ctx, email, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return apperror.NewValidationError("email", "the email has already been taken")
	}
	return nil
}
