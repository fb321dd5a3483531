package services

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"chat-server/auth"
	"chat-server/domain"
	"chat-server/errors"
	"chat-server/repositories"
)

type IAuthService interface {
	Register(name, email, password, pic string) (domain.AuthenticatedUser, error)
	Login(email, password string) (domain.AuthenticatedUser, error)
}

type AuthService struct {
	userRepository repositories.IUserRepository
	issuer         *auth.TokenIssuer
}

func NewAuthService(repo repositories.IUserRepository, issuer *auth.TokenIssuer) *AuthService {
	return &AuthService{userRepository: repo, issuer: issuer}
}

func (s *AuthService) Register(name, email, password, pic string) (domain.AuthenticatedUser, error) {
	if name == "" || email == "" || password == "" {
		return domain.AuthenticatedUser{}, errors.ErrMissingFields
	}

	// Validate business rules before any expensive cryptographic operation.
	valReq := auth.RegisterRequest{Name: name, Email: email, Password: password}
	if err := auth.ValidateRegister(valReq); err != nil {
		return domain.AuthenticatedUser{}, fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	if err := validateAvatar(pic); err != nil {
		return domain.AuthenticatedUser{}, err
	}

	// Hashing happens in the service layer to keep the repository unaware
	// of plain passwords.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return domain.AuthenticatedUser{}, fmt.Errorf("hashing failed: %w", err)
	}

	user, err := s.userRepository.CreateUser(repositories.User{
		Name:         name,
		Email:        email,
		Pic:          pic,
		PasswordHash: hashedPassword,
	})
	if err != nil {
		return domain.AuthenticatedUser{}, err // Propagates ErrUserAlreadyExists
	}

	return s.withToken(user)
}

func (s *AuthService) Login(email, password string) (domain.AuthenticatedUser, error) {
	user, err := s.userRepository.GetUserByEmail(email)
	if err != nil {
		// Generic error to prevent user enumeration attacks.
		return domain.AuthenticatedUser{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return domain.AuthenticatedUser{}, errors.ErrInvalidCredentials
	}

	return s.withToken(user)
}

func (s *AuthService) withToken(user repositories.User) (domain.AuthenticatedUser, error) {
	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		return domain.AuthenticatedUser{}, errors.ErrTokenGeneration
	}
	return domain.AuthenticatedUser{User: toDomainUser(user), Token: token}, nil
}

// validateAvatar accepts either an absolute URL or an inline data URI. Data
// URIs are content sniffed and must carry an image.
func validateAvatar(pic string) error {
	if pic == "" || !strings.HasPrefix(pic, "data:") {
		return nil
	}

	header, payload, found := strings.Cut(pic, ",")
	if !found {
		return errors.ErrInvalidAvatar
	}

	raw := []byte(payload)
	if strings.HasSuffix(header, ";base64") {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return errors.ErrInvalidAvatar
		}
		raw = decoded
	}

	// The declared media type is ignored; only the sniffed content counts.
	detected := mimetype.Detect(raw)
	if !strings.HasPrefix(detected.String(), "image/") {
		return errors.ErrInvalidAvatar
	}
	return nil
}

func toDomainUser(user repositories.User) domain.User {
	return domain.User{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Pic:   user.Pic,
	}
}
