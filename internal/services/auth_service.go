package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/aiwork-marketplace/backend/internal/apperrors"
	"github.com/aiwork-marketplace/backend/internal/auth"
	"github.com/aiwork-marketplace/backend/internal/config"
	"github.com/aiwork-marketplace/backend/internal/models"
	"github.com/aiwork-marketplace/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	userRepo *repositories.UserRepo
	cfg      *config.Config
	log      *zap.Logger
}

func NewAuthService(userRepo *repositories.UserRepo, cfg *config.Config, log *zap.Logger) *AuthService {
	return &AuthService{userRepo: userRepo, cfg: cfg, log: log}
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	Role        string
}

// Register creates a user and returns a signed session token.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", fmt.Errorf("%w: valid email is required", apperrors.ErrInvalidTransaction)
	}
	if len(input.Password) < 8 {
		return nil, "", fmt.Errorf("%w: password must be at least 8 characters", apperrors.ErrInvalidTransaction)
	}
	if !models.IsValidRole(input.Role) || input.Role == models.RoleAdmin {
		return nil, "", fmt.Errorf("%w: role must be client or vendor", apperrors.ErrInvalidTransaction)
	}
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, "", fmt.Errorf("email already registered: %w", apperrors.ErrInvalidState)
	} else if !isNotFound(err) {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         input.Role,
	}
	if input.DisplayName != "" {
		user.DisplayName = &input.DisplayName
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := auth.GenerateJWT(s.cfg.JWTSecret, user.ID, user.Role, s.cfg.JWTExpiration)
	if err != nil {
		return nil, "", err
	}

	s.log.Info("user registered",
		zap.String("user_id", user.ID.String()),
		zap.String("role", user.Role),
	)
	return user, token, nil
}

// Login verifies credentials and returns a signed session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if isNotFound(err) {
			return nil, "", fmt.Errorf("invalid credentials: %w", apperrors.ErrForbidden)
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", fmt.Errorf("invalid credentials: %w", apperrors.ErrForbidden)
	}

	token, err := auth.GenerateJWT(s.cfg.JWTSecret, user.ID, user.Role, s.cfg.JWTExpiration)
	if err != nil {
		return nil, "", err
	}

	_ = s.userRepo.UpdateLastActive(ctx, user.ID)
	return user, token, nil
}

func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// SetSimulationMode toggles the demo-account flag.
func (s *AuthService) SetSimulationMode(ctx context.Context, userID uuid.UUID, enabled bool) error {
	return s.userRepo.SetSimulationMode(ctx, userID, enabled)
}
