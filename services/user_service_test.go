package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"chat-server/mocks"
	"chat-server/repositories"
)

func TestUserService_Search(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := NewUserService(mockRepo)
	ctx := context.Background()

	t.Run("should map repository records to public users", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			SearchUsers(ctx, "ali", "requester").
			Return([]repositories.User{
				{ID: "u1", Name: "Alice", Email: "alice@example.com", PasswordHash: "secret-hash"},
			}, nil)

		users, err := svc.Search(ctx, "ali", "requester")

		req.NoError(err)
		req.Len(users, 1)
		req.Equal("Alice", users[0].Name)
	})

	t.Run("should return the empty slice untouched", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			SearchUsers(ctx, "nobody", "requester").
			Return(nil, nil)

		users, err := svc.Search(ctx, "nobody", "requester")

		req.NoError(err)
		req.Empty(users)
	})
}
