// internal/services/auth_service.go
package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/awingconnect/license-server/internal/utils"
)

type AuthService struct {
	admins *AdminService
	tokens *TokenService
	logger logrus.FieldLogger
}

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,max=128"`
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
}

func NewAuthService(admins *AdminService, tokens *TokenService, logger logrus.FieldLogger) *AuthService {
	return &AuthService{
		admins: admins,
		tokens: tokens,
		logger: logger,
	}
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationFailed(err)
	}

	admin, err := s.admins.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	issued, err := s.tokens.IssueToken(ctx, admin.Username)
	if err != nil {
		return nil, err
	}

	s.logger.WithField("username", admin.Username).Info("Admin logged in")
	return &AuthResponse{
		AccessToken: issued.Token,
		TokenType:   "bearer",
		Username:    admin.Username,
	}, nil
}

// Logout revokes every session of username.
func (s *AuthService) Logout(ctx context.Context, username string) error {
	revoked, err := s.tokens.RevokeSession(ctx, username)
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"username": username,
		"sessions": revoked,
	}).Info("Admin logged out")
	return nil
}
