package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hszk-dev/clipshare/internal/auth"
	"github.com/hszk-dev/clipshare/internal/domain/model"
	"github.com/hszk-dev/clipshare/internal/domain/repository"
	"github.com/hszk-dev/clipshare/internal/invalidation"
)

// PasswordHasher is satisfied by auth.BcryptHasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer is satisfied by auth.TokenService.
type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, error)
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

// AuthOutput is returned by register and login.
type AuthOutput struct {
	User  *model.User
	Token string
}

// AuthService handles accounts and profiles.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthOutput, error)
	// Login returns ErrInvalidCredentials for an unknown email or wrong password.
	Login(ctx context.Context, email, password string) (*AuthOutput, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, patch model.ProfilePatch) (*model.User, error)
}

type authService struct {
	users  repository.UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
	events EventEmitter
}

func NewAuthService(users repository.UserRepository, hasher PasswordHasher, tokens TokenIssuer, events EventEmitter) AuthService {
	return &authService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		events: events,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*AuthOutput, error) {
	if err := model.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user, err := model.NewUser(input.Username, input.Email, hash, input.FullName)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthOutput, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return s.issue(user)
}

func (s *authService) issue(user *model.User) (*AuthOutput, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthOutput{User: user, Token: token}, nil
}

func (s *authService) GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile invalidates every cached response embedding the profile.
func (s *authService) UpdateProfile(ctx context.Context, userID uuid.UUID, patch model.ProfilePatch) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := user.Apply(patch); err != nil {
		return nil, err
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	if err := s.events.Emit(ctx, invalidation.UserChanged(user.ID)); err != nil {
		return nil, fmt.Errorf("invalidate cache: %w", err)
	}
	return user, nil
}
