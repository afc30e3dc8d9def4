package service

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"research-workflow-be/internal/config"
	"research-workflow-be/internal/dto"
	"research-workflow-be/internal/pkg/serverutils"
)

type IAuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
}

// authService exchanges the workspace passphrase for a JWT. There are no
// accounts: one bcrypt hash in the environment guards the whole API.
type authService struct {
	cfg *config.Config
}

func NewAuthService(cfg *config.Config) IAuthService {
	return &authService{cfg: cfg}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	hash := s.cfg.Auth.PassphraseHash
	if hash == "" {
		return nil, serverutils.NewAppError(fiber.StatusServiceUnavailable, "AUTH_UNCONFIGURED",
			"Workspace passphrase is not configured", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Passphrase)); err != nil {
		return nil, serverutils.NewAppError(fiber.StatusUnauthorized, "INVALID_PASSPHRASE",
			"Invalid passphrase", err)
	}

	ttl := time.Duration(s.cfg.Auth.TokenTTLHours) * time.Hour
	expiresAt := time.Now().Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "operator",
		"iat": time.Now().Unix(),
		"exp": expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte(s.cfg.Auth.JWTSecret))
	if err != nil {
		return nil, serverutils.NewAppError(fiber.StatusInternalServerError, "TOKEN_SIGNING",
			"Failed to sign token", err)
	}

	return &dto.LoginResponse{
		Token:     signed,
		ExpiresAt: expiresAt,
	}, nil
}
