package services

import (
	"context"

	"github.com/samber/lo"

	"chat-server/domain"
	"chat-server/repositories"
)

type IUserService interface {
	Search(ctx context.Context, keyword, requesterID string) ([]domain.User, error)
}

type UserService struct {
	userRepository repositories.IUserRepository
}

func NewUserService(repo repositories.IUserRepository) *UserService {
	return &UserService{userRepository: repo}
}

// Search returns users whose name or email contains keyword, case
// insensitive, never including the requester themselves.
func (s *UserService) Search(ctx context.Context, keyword, requesterID string) ([]domain.User, error) {
	users, err := s.userRepository.SearchUsers(ctx, keyword, requesterID)
	if err != nil {
		return nil, err
	}
	return lo.Map(users, func(user repositories.User, _ int) domain.User {
		return toDomainUser(user)
	}), nil
}
