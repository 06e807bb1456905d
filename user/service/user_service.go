package service

import (
	"context"
	"errors"

	apperrors "clientdesk/backend/pkg/errors"
	"clientdesk/backend/pkg/jwt"
	"clientdesk/backend/user/models"
	"clientdesk/backend/user/repository"

	"gorm.io/gorm"
)

// UserService handles signup, login and profile reads
type UserService struct {
	repo repository.UserRepository
	jwt  *jwt.Service
}

func NewUserService(repo repository.UserRepository, jwtService *jwt.Service) *UserService {
	return &UserService{repo: repo, jwt: jwtService}
}

// Signup creates a user and returns it with a fresh token
func (s *UserService) Signup(ctx context.Context, req *models.SignupRequest) (*models.User, string, error) {
	if existing, err := s.repo.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, "", apperrors.NewConflictError("EMAIL_TAKEN", "A user with this email already exists")
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		ClientID: req.ClientID,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, "", apperrors.NewPersistenceError("failed to create user", err)
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Email, jwt.Role(user.Role), user.ClientID)
	if err != nil {
		return nil, "", apperrors.NewInternalServerError("TOKEN_ERROR", "failed to issue token")
	}
	return user, token, nil
}

// Login validates credentials and returns the user with a fresh token
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.User, string, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", apperrors.NewUnauthorizedError("INVALID_CREDENTIALS", "Invalid email or password")
		}
		return nil, "", apperrors.NewPersistenceError("failed to load user", err)
	}

	if !models.CheckPasswordHash(req.Password, user.Password) {
		return nil, "", apperrors.NewUnauthorizedError("INVALID_CREDENTIALS", "Invalid email or password")
	}

	// Best-effort; login still succeeds if the timestamp update fails
	_ = s.repo.UpdateLastLogin(ctx, user.ID)

	token, err := s.jwt.GenerateToken(user.ID, user.Email, jwt.Role(user.Role), user.ClientID)
	if err != nil {
		return nil, "", apperrors.NewInternalServerError("TOKEN_ERROR", "failed to issue token")
	}
	return user, token, nil
}

// GetByID loads a single user
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("USER_NOT_FOUND", "User not found")
		}
		return nil, apperrors.NewPersistenceError("failed to load user", err)
	}
	return user, nil
}
