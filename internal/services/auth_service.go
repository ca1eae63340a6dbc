package services

import (
	"talentvault_backend/internal/appErrors"
	"talentvault_backend/internal/auth"
	"talentvault_backend/internal/models"
	"talentvault_backend/internal/repositories"
	"talentvault_backend/internal/services/dto"
)

type AuthService interface {
	Login(req *dto.LoginRequest) (*dto.LoginResponse, error)
}

type authService struct {
	userRepo repositories.UserRepository
}

func NewAuthService(userRepo repositories.UserRepository) AuthService {
	return &authService{userRepo: userRepo}
}

func (s *authService) Login(req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, appErrors.ErrInvalidCredentials
	}

	if user.Status == models.UserStatusSuspended || user.Status == models.UserStatusBanned {
		return nil, appErrors.ErrForbidden
	}

	token, err := auth.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, appErrors.InternalError(err)
	}

	return &dto.LoginResponse{
		Token: token,
		User: dto.UserResponse{
			ID:          user.ID,
			Email:       user.Email,
			DisplayName: user.DisplayName,
			Role:        user.Role,
			CreatedAt:   user.CreatedAt,
		},
	}, nil
}
