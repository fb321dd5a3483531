package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"chat-server/auth"
	"chat-server/errors"
	"chat-server/mocks"
	"chat-server/repositories"
)

func newTestIssuer(t *testing.T) *auth.TokenIssuer {
	t.Helper()
	issuer, err := auth.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	return issuer
}

func TestAuthService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := NewAuthService(mockRepo, newTestIssuer(t))

	t.Run("should register successfully when input is valid", func(t *testing.T) {
		req := require.New(t)
		email := "alice@example.com"
		password := "ComplexPass123"

		// Expect CreateUser to be called with a hashed password (not the plain one)
		mockRepo.EXPECT().
			CreateUser(gomock.Any()).
			DoAndReturn(func(user repositories.User) (repositories.User, error) {
				req.Equal(email, user.Email)
				req.NotEqual(password, user.PasswordHash)
				req.Contains(user.PasswordHash, "$argon2id$")
				user.ID = "user-uuid"
				return user, nil
			}).
			Times(1)

		authenticated, err := svc.Register("Alice", email, password, "")

		req.NoError(err)
		req.Equal("user-uuid", authenticated.ID)
		req.NotEmpty(authenticated.Token)
	})

	t.Run("should fail when a field is missing", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().CreateUser(gomock.Any()).Times(0)

		_, err := svc.Register("Alice", "", "ComplexPass123", "")

		req.ErrorIs(err, errors.ErrMissingFields)
	})

	t.Run("should fail when password complexity is not met", func(t *testing.T) {
		req := require.New(t)

		// Repository should NEVER be called
		mockRepo.EXPECT().CreateUser(gomock.Any()).Times(0)

		_, err := svc.Register("Alice", "alice@example.com", "simplepass", "")

		req.ErrorIs(err, errors.ErrInvalidPassword)
	})

	t.Run("should fail when user already exists in repository", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			CreateUser(gomock.Any()).
			Return(repositories.User{}, errors.ErrUserAlreadyExists).
			Times(1)

		_, err := svc.Register("Alice", "duplicate@example.com", "ComplexPass123", "")

		req.ErrorIs(err, errors.ErrUserAlreadyExists)
	})

	t.Run("should reject a data URI avatar that is not an image", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().CreateUser(gomock.Any()).Times(0)

		pic := "data:image/png;base64,aGVsbG8gd29ybGQ=" // "hello world", not a PNG
		_, err := svc.Register("Alice", "alice@example.com", "ComplexPass123", pic)

		req.ErrorIs(err, errors.ErrInvalidAvatar)
	})

	t.Run("should accept a plain URL avatar without sniffing", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			CreateUser(gomock.Any()).
			DoAndReturn(func(user repositories.User) (repositories.User, error) {
				user.ID = "user-uuid"
				return user, nil
			}).
			Times(1)

		_, err := svc.Register("Alice", "alice@example.com", "ComplexPass123",
			"https://cdn.example.com/avatar.png")

		req.NoError(err)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	issuer := newTestIssuer(t)
	svc := NewAuthService(mockRepo, issuer)

	t.Run("should login successfully with correct credentials", func(t *testing.T) {
		req := require.New(t)
		email := "user@example.com"
		password := "Secret123456"

		hashedPassword, err := auth.HashPassword(password)
		req.NoError(err)
		storedUser := repositories.User{
			ID:           "uuid-123",
			Name:         "User",
			Email:        email,
			PasswordHash: hashedPassword,
		}

		mockRepo.EXPECT().
			GetUserByEmail(email).
			Return(storedUser, nil).
			Times(1)

		authenticated, err := svc.Login(email, password)

		req.NoError(err)
		req.NotEmpty(authenticated.Token)

		claims, err := issuer.Validate(authenticated.Token)
		req.NoError(err)
		req.Equal(storedUser.ID, claims.UserID)
	})

	t.Run("should return invalid credentials when password is wrong", func(t *testing.T) {
		req := require.New(t)
		email := "user@example.com"

		hashedPassword, err := auth.HashPassword("CorrectPassword123")
		req.NoError(err)

		mockRepo.EXPECT().
			GetUserByEmail(email).
			Return(repositories.User{Email: email, PasswordHash: hashedPassword}, nil).
			Times(1)

		_, err = svc.Login(email, "WrongPassword123")

		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})

	t.Run("should return invalid credentials when user is not found", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			GetUserByEmail("unknown@example.com").
			Return(repositories.User{}, errors.ErrNotFound).
			Times(1)

		_, err := svc.Login("unknown@example.com", "anyPassword1")

		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})
}
