package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"inventory-backend/internal/apps/user/models"
	"inventory-backend/internal/apps/user/repository"
	"inventory-backend/pkg/secure"
	"inventory-backend/pkg/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound is returned when no user has the requested id
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when the username or email is taken
	ErrUserExists = errors.New("username or email already registered")
	// ErrInvalidOTP is returned when the email verification code does not validate
	ErrInvalidOTP = errors.New("invalid or expired otp")
	// ErrInvalidCredentials is returned for a failed login
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// OTPValidator consumes an email verification code
type OTPValidator interface {
	Validate(ctx context.Context, identifier, code string) bool
}

// TokenIssuer creates access tokens
type TokenIssuer interface {
	Generate(userID, role string) (string, time.Time, error)
}

// UserService defines the interface for user business logic
type UserService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.UserResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.UserResponse, error)
	ListUsers(ctx context.Context) ([]models.UserResponse, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// Option configures a UserService
type Option func(*userService)

// WithAdminEmails grants the admin role to these addresses when they register
func WithAdminEmails(emails ...string) Option {
	return func(s *userService) {
		for _, e := range emails {
			if e = utils.NormalizeEmail(e); e != "" {
				s.admins[e] = struct{}{}
			}
		}
	}
}

// userService implements UserService
type userService struct {
	repo       repository.UserRepository
	otp        OTPValidator
	tokens     TokenIssuer
	bcryptCost int
	admins     map[string]struct{}
	log        *slog.Logger
}

// NewUserService creates a new instance of UserService
func NewUserService(repo repository.UserRepository, otp OTPValidator, tokens TokenIssuer, bcryptCost int, log *slog.Logger, opts ...Option) UserService {
	s := &userService{
		repo:       repo,
		otp:        otp,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		admins:     make(map[string]struct{}),
		log:        log.With(slog.String("service", "user")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// roleFor returns admin only for configured addresses; a requested admin
// role from anyone else is downgraded to user.
func (s *userService) roleFor(email, requested string) string {
	if _, ok := s.admins[email]; ok {
		return models.RoleAdmin
	}
	if requested == models.RoleAdmin {
		s.log.Warn("role_downgraded", slog.String("email", email), slog.String("requested", requested))
	}
	return models.RoleUser
}

func (s *userService) taken(ctx context.Context, username, email string) (bool, error) {
	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return true, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return true, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	return false, nil
}

// Register creates an account once the email's OTP validates. Uniqueness is
// checked first so that a taken username does not burn the code.
func (s *userService) Register(ctx context.Context, req models.RegisterRequest) (*models.UserResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := utils.NormalizeEmail(req.Email)

	taken, err := s.taken(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if taken {
		return nil, ErrUserExists
	}

	if !s.otp.Validate(ctx, email, strings.TrimSpace(req.OTP)) {
		s.log.Warn("register_rejected", slog.String("email", email), slog.String("reason", "otp validation failed"))
		return nil, ErrInvalidOTP
	}

	hash, err := secure.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         s.roleFor(email, req.Role),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user_registered", slog.String("user_id", user.ID.String()), slog.String("role", user.Role))
	resp := user.ToResponse()
	return &resp, nil
}

// Login checks the password and issues an access token
func (s *userService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := secure.CheckPassword(user.PasswordHash, req.Password); err != nil {
		if errors.Is(err, secure.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	token, expiresAt, err := s.tokens.Generate(user.ID.String(), user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.log.Info("user_logged_in", slog.String("user_id", user.ID.String()))
	return &models.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        user.ToResponse(),
	}, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*models.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	resp := user.ToResponse()
	return &resp, nil
}

// ListUsers retrieves every user
func (s *userService) ListUsers(ctx context.Context) ([]models.UserResponse, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	responses := make([]models.UserResponse, len(users))
	for i := range users {
		responses[i] = users[i].ToResponse()
	}
	return responses, nil
}

// DeleteUser removes a user by ID
func (s *userService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	s.log.Info("user_deleted", slog.String("user_id", id.String()))
	return nil
}
