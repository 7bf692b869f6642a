package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "stockpilot/internal/errors"
	"stockpilot/internal/model"
	"stockpilot/internal/repository"
)

// UserService exposes user lookups for authenticated requests.
type UserService interface {
	GetUser(ctx context.Context, id uint) (*model.User, error)
}

type userService struct {
	repo repository.UserRepository
}

// NewUserService builds a UserService.
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

// GetUser returns the active user with id. Deleted and deactivated users yield ErrUserNotFound.
func (s *userService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive {
		return nil, apperrors.ErrUserNotFound
	}
	return user, nil
}
