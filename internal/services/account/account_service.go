// File: internal/services/account/account_service.go
package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/iyunix/go-sage/internal/auth"
	"github.com/iyunix/go-sage/internal/domain"
	"github.com/iyunix/go-sage/internal/repository/user"
	"github.com/iyunix/go-sage/internal/services"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = user.ErrEmailTaken
)

// ValidationError carries a message safe to show the user.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

type Service struct {
	users        user.UserRepository
	jwtSecretKey []byte
	logger       services.Logger
}

func NewService(users user.UserRepository, jwtSecretKey string, logger services.Logger) (*Service, error) {
	if users == nil {
		return nil, errors.New("user repository cannot be nil")
	}
	if jwtSecretKey == "" {
		return nil, errors.New("JWT secret key cannot be empty")
	}
	if logger == nil {
		logger = &services.NoOpLogger{}
	}
	return &Service{users: users, jwtSecretKey: []byte(jwtSecretKey), logger: logger}, nil
}

// Register creates an email account.
func (s *Service) Register(ctx context.Context, in SignupInput) (*domain.User, error) {
	if err := validateSignup(&in); err != nil {
		s.logger.Warn("signup rejected", "reason", err.Error())
		return nil, err
	}

	u := &domain.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
	}
	if err := u.HashPassword(in.Password); err != nil {
		return nil, &ValidationError{Field: "password", Message: err.Error()}
	}

	created, err := s.users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			s.logger.Warn("signup with registered email", "email", maskEmail(in.Email))
			return nil, ErrEmailTaken
		}
		s.logger.Error("failed to create user", "email", maskEmail(in.Email), "error", err)
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", "user_id", created.ID, "email", maskEmail(created.Email))
	return created, nil
}

// Login checks credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, "", ErrInvalidCredentials
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, user.ErrUserNotFound) {
			s.logger.Error("login lookup failed", "email", maskEmail(email), "error", err)
			return nil, "", fmt.Errorf("find user: %w", err)
		}
		s.logger.Warn("login failed - user not found", "email", maskEmail(email))
		return nil, "", ErrInvalidCredentials
	}
	if err := u.ValidatePassword(password); err != nil {
		s.logger.Warn("login failed - invalid password", "user_id", u.ID)
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.IssueToken(u)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user logged in", "user_id", u.ID)
	return u, token, nil
}

// IssueToken signs a session token for u.
func (s *Service) IssueToken(u *domain.User) (string, error) {
	token, err := auth.GenerateJWT(u.ID, s.jwtSecretKey)
	if err != nil {
		s.logger.Error("JWT token generation failed", "user_id", u.ID, "error", err)
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// ValidateToken returns the user ID a token was issued to.
func (s *Service) ValidateToken(token string) (uint, error) {
	return auth.ValidateToken(token, s.jwtSecretKey)
}

func (s *Service) FindUser(ctx context.Context, id uint) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

func validateSignup(in *SignupInput) error {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if in.FirstName == "" {
		return &ValidationError{Field: "firstName", Message: "first name is required"}
	}
	if in.LastName == "" {
		return &ValidationError{Field: "lastName", Message: "last name is required"}
	}
	addr, err := mail.ParseAddress(in.Email)
	if err != nil || addr.Address != in.Email {
		return &ValidationError{Field: "email", Message: "email address is invalid"}
	}
	if len(in.Password) < domain.MinPasswordLength {
		return &ValidationError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters", domain.MinPasswordLength)}
	}
	return nil
}

func maskEmail(email string) string {
	local, domainPart, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return "****"
	}
	return local[:1] + "****@" + domainPart
}
