package service

import (
	"context"
	"errors"
	"os"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DTOs for Request validation
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required"`
	BranchID string `json:"branch_id"`
}

type UpdateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email" binding:"omitempty,email"`
	Role     string `json:"role"`
	Active   *bool  `json:"active"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID        uuid.UUID  `json:"id"`
	TenantID  uuid.UUID  `json:"tenant_id"`
	BranchID  *uuid.UUID `json:"branch_id,omitempty"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	Active    bool       `json:"active"`
	CreatedAt string     `json:"created_at"`
	UpdatedAt string     `json:"updated_at"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	CreateUser(ctx context.Context, tenantID uuid.UUID, req CreateUserRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	GetUserByID(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*UserResponse, error)
	ListUsers(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error
}

type userService struct {
	repo repository.UserRepository
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

// Helper: check if role is allowed
func validateRole(role string) bool {
	return role == model.RoleAdmin || role == model.RoleRestaurantAdmin || role == model.RoleBranchAdmin
}

// Helper: parse model to standard json API response
func mapToResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		TenantID:  user.TenantID,
		BranchID:  user.BranchID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		Active:    user.Active,
		CreatedAt: user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: user.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (s *userService) CreateUser(ctx context.Context, tenantID uuid.UUID, req CreateUserRequest) (*UserResponse, error) {
	if !validateRole(req.Role) {
		return nil, apperror.New(apperror.KindValidation, "invalid role: must be admin, restaurant-admin, or branch-admin")
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, apperror.New(apperror.KindValidation, "email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &model.User{
		TenantID: tenantID,
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashedPassword),
		Role:     req.Role,
		Active:   true,
	}
	if req.BranchID != "" {
		branchID, parseErr := uuid.Parse(req.BranchID)
		if parseErr != nil {
			return nil, apperror.New(apperror.KindValidation, "invalid branch_id: %s", req.BranchID)
		}
		user.BranchID = &branchID
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return mapToResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperror.New(apperror.KindUnauthorized, "invalid email or password")
	}
	if !user.Active {
		return nil, apperror.New(apperror.KindUnauthorized, "account is disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperror.New(apperror.KindUnauthorized, "invalid email or password")
	}

	// Generate JWT Token
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":       user.ID.String(),
		"role":      user.Role,
		"tenant_id": user.TenantID.String(),
	})

	// Use same fallback strategy as middleware for simplicity here or get from env centrally
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_super_secret_key"
	}

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	return &TokenResponse{Token: tokenString}, nil
}

func (s *userService) GetUserByID(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*UserResponse, error) {
	user, err := s.findTenantUser(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return mapToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]UserResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	users, total, err := s.repo.List(ctx, tenantID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	var responses []UserResponse
	for _, u := range users {
		responses = append(responses, *mapToResponse(&u))
	}

	return responses, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.findTenantUser(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.Role != "" {
		if !validateRole(req.Role) {
			return nil, apperror.New(apperror.KindValidation, "invalid role: must be admin, restaurant-admin, or branch-admin")
		}
		user.Role = req.Role
	}

	if req.Username != "" {
		user.Username = req.Username
	}

	if req.Email != "" && req.Email != user.Email {
		if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
			return nil, apperror.New(apperror.KindValidation, "email already exists")
		}
		user.Email = req.Email
	}

	if req.Active != nil {
		user.Active = *req.Active
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return mapToResponse(user), nil
}

func (s *userService) DeleteUser(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	if _, err := s.findTenantUser(ctx, tenantID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *userService) findTenantUser(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNotFound, "user %s not found", id)
		}
		return nil, err
	}
	if user.TenantID != tenantID {
		return nil, apperror.New(apperror.KindNotFound, "user %s not found", id)
	}
	return user, nil
}
