package services

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"taskhub/internal/middleware"
	"taskhub/internal/models"
)

type AuthService interface {
	HashPassword(plain string) (string, error)
	CheckPassword(hash, plain string) bool
	IssueAccessToken(user *models.User) (string, error)
}

type authService struct {
	secret    []byte
	accessTTL time.Duration
}

func NewAuthService(secret []byte, accessTTL time.Duration) AuthService {
	return &authService{secret: secret, accessTTL: accessTTL}
}

func (s *authService) HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *authService) CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

func (s *authService) IssueAccessToken(user *models.User) (string, error) {
	claims := &middleware.Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
