// internal/services/user_service.go
package services

import (
	"context"
	"strings"

	"github.com/goldenrice/rice-backend/internal/apperror"
	"github.com/goldenrice/rice-backend/internal/i18n"
	"github.com/goldenrice/rice-backend/internal/models"
	"github.com/goldenrice/rice-backend/internal/repository"
	"github.com/goldenrice/rice-backend/internal/utils"
)

type UserService struct {
	users repository.UserRepository
}

// UpdateUserProfileRequest changes only the fields that are present.
type UpdateUserProfileRequest struct {
	Name   *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Phone  *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Locale *string `json:"locale,omitempty" validate:"omitempty,locale"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,strong_password"`
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) UpdateProfile(ctx context.Context, actor Actor, req *UpdateUserProfileRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, repoError(err, "user")
	}

	if req.Name != nil {
		name := utils.SanitizeText(*req.Name)
		if name == "" {
			return nil, apperror.Field("name", "name must not be empty")
		}
		user.Name = name
	}
	if req.Phone != nil {
		user.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Locale != nil {
		user.Locale = *req.Locale
	}

	if err := s.users.Save(ctx, user); err != nil {
		return nil, repoError(err, "user")
	}
	return user, nil
}

// ChangePassword replaces the password after checking the current one.
// Tokens already issued stay valid until they expire.
func (s *UserService) ChangePassword(ctx context.Context, actor Actor, req *ChangePasswordRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return repoError(err, "user")
	}
	if err := user.CheckPassword(req.CurrentPassword); err != nil {
		return apperror.Field("current_password", "current password is incorrect").WithKey(i18n.KeyUserWrongPassword)
	}
	if err := user.SetPassword(req.NewPassword); err != nil {
		return apperror.Wrap(apperror.KindInternal, err, "failed to hash password")
	}

	if err := s.users.Save(ctx, user); err != nil {
		return repoError(err, "user")
	}
	return nil
}
