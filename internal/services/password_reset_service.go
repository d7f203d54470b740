package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"taskhub/internal/repositories"
	"taskhub/internal/utils"
)

type PasswordResetService interface {
	RequestReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type passwordResetService struct {
	userRepo      repositories.UserRepository
	repo          repositories.PasswordResetRepository
	auth          AuthService
	gateway       NotificationGateway
	resetBaseURL  string
	securityEmail string
}

func NewPasswordResetService(
	userRepo repositories.UserRepository,
	repo repositories.PasswordResetRepository,
	auth AuthService,
	gateway NotificationGateway,
	resetBaseURL, securityEmail string,
) PasswordResetService {
	return &passwordResetService{
		userRepo:      userRepo,
		repo:          repo,
		auth:          auth,
		gateway:       gateway,
		resetBaseURL:  resetBaseURL,
		securityEmail: securityEmail,
	}
}

func (s *passwordResetService) RequestReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil || user == nil {
		// don't leak account existence
		log.Printf("[password-reset] request for %q: user not found or error: %v", email, err)
		return nil
	}

	token, err := utils.NewResetToken(32)
	if err != nil {
		return err
	}
	expires := time.Now().Add(1 * time.Hour)
	if _, err := s.repo.Create(ctx, user.ID, token, expires); err != nil {
		return err
	}

	if s.gateway != nil {
		err := s.gateway.Notify(ctx, Event{
			Kind: EventPasswordReset,
			To:   Recipient{ID: user.ID, Email: user.Email},
			Payload: map[string]string{
				"resetLink":     s.resetBaseURL + token,
				"securityEmail": s.securityEmail,
			},
		})
		if err != nil {
			log.Printf("[password-reset] notification to %s failed: %v", user.Email, err)
		}
	}
	return nil
}

func (s *passwordResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is required")
	}

	pr, err := s.repo.GetByToken(ctx, token)
	if err != nil || pr == nil {
		return errors.New("invalid or expired token")
	}
	if pr.UsedAt != nil {
		return errors.New("token already used")
	}
	if time.Now().After(pr.ExpiresAt) {
		return errors.New("token expired")
	}

	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, pr.UserID, hash); err != nil {
		return err
	}
	return s.repo.MarkUsed(ctx, pr.ID)
}
