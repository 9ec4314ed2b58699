package services

import (
	"context"
	"crypto/subtle"

	"go.uber.org/zap"

	"fieldservice-admin/internal/dto"
	"fieldservice-admin/pkg/config"
	apperrors "fieldservice-admin/pkg/errors"
	"fieldservice-admin/pkg/service"
	"fieldservice-admin/pkg/utils"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.AuthResponseDTO, error)
	Refresh(ctx context.Context, payload dto.RefreshTokenDTO) (*dto.AuthResponseDTO, error)
}

type AuthService struct {
	jwt    service.JWTService
	admin  config.AdminConfig
	logger *zap.Logger
}

func NewAuthService(jwt service.JWTService, admin config.AdminConfig, logger *zap.Logger) AuthServiceInterface {
	return &AuthService{jwt: jwt, admin: admin, logger: logger}
}

// Login — единственная учётка администратора из конфигурации.
func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.AuthResponseDTO, error) {
	logger := s.logger.With(zap.String("login", payload.Login))

	if s.admin.PasswordHash == "" {
		logger.Error("ADMIN_PASSWORD_HASH не задан, вход невозможен")
		return nil, apperrors.ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(payload.Login), []byte(s.admin.Login)) != 1 {
		logger.Warn("Неизвестный логин")
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := utils.ComparePasswords(s.admin.PasswordHash, payload.Password); err != nil {
		logger.Warn("Неверный пароль")
		return nil, apperrors.ErrInvalidCredentials
	}

	logger.Info("Успешный вход")
	return s.issue(uint64(s.admin.UserID))
}

func (s *AuthService) Refresh(ctx context.Context, payload dto.RefreshTokenDTO) (*dto.AuthResponseDTO, error) {
	claims, err := s.jwt.ValidateToken(payload.RefreshToken)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefreshToken {
		return nil, apperrors.ErrTokenIsNotRefresh
	}
	return s.issue(claims.UserID)
}

func (s *AuthService) issue(userID uint64) (*dto.AuthResponseDTO, error) {
	access, refresh, err := s.jwt.GenerateTokens(userID)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponseDTO{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.jwt.GetAccessTokenTTL().Seconds()),
		UserID:       userID,
	}, nil
}
