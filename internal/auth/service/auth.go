// Package service implements the login gate.
package service

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/stocklot/stocklot-backend/internal/auth/domain"
	"github.com/stocklot/stocklot-backend/internal/auth/jwt"
	"github.com/stocklot/stocklot-backend/pkg/errors"
	"github.com/stocklot/stocklot-backend/pkg/logger"
)

// UserStore is the persistence boundary for accounts. Implemented by
// the flat-file store and the Postgres repository.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Count(ctx context.Context) (int, error)
}

// AuthService handles authentication
type AuthService struct {
	users  UserStore
	tokens *jwt.Manager
	logger *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, tokens *jwt.Manager, log *logger.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		logger: log,
	}
}

// LoginResult is what a successful login returns
type LoginResult struct {
	Token *jwt.Token   `json:"token"`
	User  *domain.User `json:"user"`
}

// Login verifies the credentials and issues an access token. Unknown
// usernames and wrong passwords come back as the same error.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.InvalidCredentials()
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn().Str("username", username).Msg("failed login attempt")
		return nil, errors.InvalidCredentials()
	}

	token, err := s.tokens.Generate(&jwt.UserInfo{
		ID:       user.ID,
		Username: user.Username,
		Name:     user.Name,
		Role:     string(user.Role),
	})
	if err != nil {
		return nil, errors.Internal("failed to issue token")
	}

	s.logger.Info().Str("username", user.Username).Msg("user logged in")
	return &LoginResult{Token: token, User: user}, nil
}

// CreateUser registers a new account with a hashed password
func (s *AuthService) CreateUser(ctx context.Context, username, name, password string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, errors.Validation(map[string]string{
			"role": "must be one of: admin, operator",
		})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Internal("failed to hash password")
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Name:         name,
		PasswordHash: string(hash),
		Role:         role,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Str("username", username).Str("role", string(role)).Msg("user created")
	return user, nil
}

// EnsureDefaultAdmin seeds an admin account when the store is empty, so
// a fresh install can log in.
func (s *AuthService) EnsureDefaultAdmin(ctx context.Context, username, password string) error {
	count, err := s.users.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if _, err := s.CreateUser(ctx, username, "Administrator", password, domain.RoleAdmin); err != nil {
		return err
	}

	s.logger.Warn().Str("username", username).Msg("seeded default admin account; change its password")
	return nil
}
