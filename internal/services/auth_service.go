// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/goldenrice/rice-backend/internal/apperror"
	"github.com/goldenrice/rice-backend/internal/config"
	"github.com/goldenrice/rice-backend/internal/i18n"
	"github.com/goldenrice/rice-backend/internal/models"
	"github.com/goldenrice/rice-backend/internal/repository"
	"github.com/goldenrice/rice-backend/internal/utils"
)

type AuthService struct {
	users repository.UserRepository
	jwt   config.JWTConfig
	now   Clock
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Phone    string `json:"phone,omitempty" validate:"max=32"`
	Password string `json:"password" validate:"required,strong_password"`
	Locale   string `json:"locale,omitempty" validate:"omitempty,locale"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // in seconds
}

func NewAuthService(users repository.UserRepository, jwt config.JWTConfig) *AuthService {
	return &AuthService{
		users: users,
		jwt:   jwt,
		now:   systemClock,
	}
}

func invalidCredentials() *apperror.Error {
	return apperror.New(apperror.KindUnauthorized, "invalid email or password").WithKey(i18n.KeyAuthInvalidCredentials)
}

// Register creates a customer account. Admins are only created by seeding.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, apperror.New(apperror.KindConflict, "user with this email already exists").WithKey(i18n.KeyAuthUserExists)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, repoError(err, "user")
	}

	locale := req.Locale
	if locale == "" {
		locale = models.LocaleEnglish
	}
	user := &models.User{
		Name:   utils.SanitizeText(req.Name),
		Email:  req.Email,
		Phone:  utils.SanitizeText(req.Phone),
		Role:   models.UserRoleCustomer,
		Status: models.UserStatusActive,
		Locale: locale,
	}
	user.ID = uuid.New()
	if err := user.SetPassword(req.Password); err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, err, "failed to hash password")
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.New(apperror.KindConflict, "user with this email already exists").WithKey(i18n.KeyAuthUserExists)
		}
		return nil, repoError(err, "user")
	}

	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalidCredentials()
		}
		return nil, repoError(err, "user")
	}
	if err := user.CheckPassword(req.Password); err != nil {
		return nil, invalidCredentials()
	}
	if user.Status != models.UserStatusActive {
		return nil, apperror.New(apperror.KindForbidden, "account is suspended").WithKey(i18n.KeyAuthAccountSuspended)
	}

	now := s.now()
	if err := s.users.TouchLogin(ctx, user.ID, now); err != nil {
		entryLog("auth.login").WithError(err).Warn("failed to record last login")
	}
	user.LastLoginAt = &now

	return s.issue(user)
}

func (s *AuthService) Refresh(ctx context.Context, req *RefreshRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	subject, err := utils.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUnauthorized, err, "invalid refresh token").WithKey(i18n.KeyAuthInvalidToken)
	}
	userID, err := uuid.Parse(subject)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUnauthorized, err, "invalid refresh token").WithKey(i18n.KeyAuthInvalidToken)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.New(apperror.KindUnauthorized, "invalid refresh token").WithKey(i18n.KeyAuthInvalidToken)
		}
		return nil, repoError(err, "user")
	}
	if user.Status != models.UserStatusActive {
		return nil, apperror.New(apperror.KindForbidden, "account is suspended").WithKey(i18n.KeyAuthAccountSuspended)
	}

	return s.issue(user)
}

func (s *AuthService) Me(ctx context.Context, actor Actor) (*models.User, error) {
	user, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, repoError(err, "user")
	}
	return user, nil
}

func (s *AuthService) issue(user *models.User) (*AuthResponse, error) {
	accessToken, err := utils.GenerateJWT(user.ID, user.Email, string(user.Role), s.jwt.AccessTokenTTL)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, err, "failed to generate access token")
	}
	refreshToken, err := utils.GenerateRefreshToken(user.ID, s.jwt.RefreshTokenTTL)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, err, "failed to generate refresh token")
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.jwt.AccessTokenTTL * 3600, // Convert hours to seconds
	}, nil
}

// SeedAdmin creates the configured administrator when no admin exists yet.
func (s *AuthService) SeedAdmin(ctx context.Context, seed config.AdminSeedConfig) error {
	if seed.Email == "" || seed.Password == "" {
		return nil
	}
	count, err := s.users.CountByRole(ctx, models.UserRoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	admin := &models.User{
		Name:   seed.Name,
		Email:  seed.Email,
		Role:   models.UserRoleAdmin,
		Status: models.UserStatusActive,
		Locale: models.LocaleEnglish,
	}
	admin.ID = uuid.New()
	if err := admin.SetPassword(seed.Password); err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	entryLog("auth.seed").WithField("email", admin.Email).Info("initial admin created")
	return nil
}
