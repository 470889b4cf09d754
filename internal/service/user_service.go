package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/apperr"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/middleware"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/model"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrInvalidCredentials is returned by Login for an unknown email or a wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// DTOs for Request validation
type RegisterUserRequest struct {
	FirstName  string `json:"first_name" binding:"required"`
	LastName   string `json:"last_name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Department string `json:"department"`
	Password   string `json:"password" binding:"required,min=6"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	Department  string    `json:"department"`
	Role        string    `json:"role"`
	Permissions []string  `json:"permissions,omitempty"`
	CreatedAt   string    `json:"created_at"`
}

type RoleResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	IsSystem    bool     `json:"is_system"`
	Permissions []string `json:"permissions"`
}

// UserService covers employee accounts and authentication.
type UserService interface {
	Register(ctx context.Context, req RegisterUserRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	Me(ctx context.Context, id string) (*UserResponse, error)
	ListRoles(ctx context.Context) ([]RoleResponse, error)
}

type userService struct {
	repo     repository.UserRepository
	roleRepo repository.RoleRepository
	secret   []byte
	tokenTTL time.Duration
	logger   *zap.Logger
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository, roleRepo repository.RoleRepository, secret []byte, tokenTTL time.Duration, logger *zap.Logger) UserService {
	return &userService{repo: repo, roleRepo: roleRepo, secret: secret, tokenTTL: tokenTTL, logger: logger}
}

// Helper: parse model to standard json API response
func mapToResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:         user.ID,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Email:      user.Email,
		Department: user.Department,
		Role:       user.Role,
		CreatedAt:  user.CreatedAt.Format(timeLayout),
	}
}

// Register creates an employee account. Admin accounts are only seeded.
func (s *userService) Register(ctx context.Context, req RegisterUserRequest) (*UserResponse, error) {
	const op = "register"

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !emailRegex.MatchString(email) {
		return nil, apperr.Validation(op, "invalid email format")
	}
	if len(req.Password) < 6 {
		return nil, apperr.Validation(op, "password must be at least 6 characters")
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, apperr.Validation(op, "email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		Email:      email,
		Department: strings.TrimSpace(req.Department),
		Password:   string(hashedPassword),
		Role:       model.RoleEmployee,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("Employee registered", zap.String("user_id", user.ID.String()))
	return mapToResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := middleware.IssueToken(s.secret, user, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &TokenResponse{Token: token, User: mapToResponse(user)}, nil
}

func (s *userService) Me(ctx context.Context, id string) (*UserResponse, error) {
	const op = "me"

	userID, err := parseID(op, "user id", id)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupErr(op, "user", err)
	}

	res := mapToResponse(user)
	res.Permissions, err = s.roleRepo.GetPermissionsByRoleName(ctx, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to load permissions: %w", err)
	}
	return res, nil
}

func (s *userService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.roleRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		codes := make([]string, 0, len(r.Permissions))
		for _, p := range r.Permissions {
			codes = append(codes, p.Code)
		}
		res = append(res, RoleResponse{
			ID:          r.ID.String(),
			Name:        r.Name,
			Description: r.Description,
			IsSystem:    r.IsSystem,
			Permissions: codes,
		})
	}
	return res, nil
}
