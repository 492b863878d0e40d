package users

import (
	"context"

	"github.com/imaginify/imaginify/backend/go-services/internal/models"
)

// Service encapsulates user-related business logic
type Service struct {
	repo UserRepository
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r}
}

// CreateUser stores a new user. Duplicates are rejected by the repository.
func (s *Service) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	return s.repo.Create(ctx, u)
}

// UpdateUser applies the mutable profile fields to the user with the given external id.
func (s *Service) UpdateUser(ctx context.Context, externalID string, upd models.UserUpdate) (*models.User, error) {
	if externalID == "" {
		return nil, nil
	}
	return s.repo.UpdateByExternalID(ctx, externalID, upd)
}

// DeleteUser removes the user and returns the deleted record.
func (s *Service) DeleteUser(ctx context.Context, externalID string) (*models.User, error) {
	if externalID == "" {
		return nil, nil
	}
	return s.repo.DeleteByExternalID(ctx, externalID)
}

func (s *Service) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return s.repo.GetByExternalID(ctx, externalID)
}
