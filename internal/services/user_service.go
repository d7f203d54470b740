package services

import (
	"context"
	"log"
	"strings"

	"taskhub/internal/authz"
	apperrors "taskhub/internal/domain/errors"
	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

type UserService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, page, limit int) (*models.UserPage, error)
	Update(ctx context.Context, id string, req *models.UpdateUserRequest) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

type userService struct {
	repo    repositories.UserRepository
	auth    AuthService
	gateway NotificationGateway
}

func NewUserService(repo repositories.UserRepository, auth AuthService, gateway NotificationGateway) UserService {
	return &userService{repo: repo, auth: auth, gateway: gateway}
}

func (s *userService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(strings.ToLower(req.Email)),
		PasswordHash: hash,
		Role:         authz.RoleUser,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	if s.gateway != nil {
		err := s.gateway.Notify(ctx, Event{
			Kind:    EventWelcome,
			To:      Recipient{ID: user.ID, Email: user.Email},
			Payload: map[string]string{"name": user.Name},
		})
		if err != nil {
			// warn but do not fail registration
			log.Printf("[user][register] welcome notification to %s failed: %v", user.Email, err)
		}
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
}

func (s *userService) List(ctx context.Context, page, limit int) (*models.UserPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	results, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []*models.User{}
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &models.UserPage{
		Results:      results,
		Page:         page,
		Limit:        limit,
		TotalPages:   (total + limit - 1) / limit,
		TotalResults: total,
	}, nil
}

func (s *userService) Update(ctx context.Context, id string, req *models.UpdateUserRequest) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		user.Email = strings.TrimSpace(strings.ToLower(*req.Email))
	}
	if req.Password != nil {
		hash, err := s.auth.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if req.Role != nil {
		if !authz.IsValidRole(*req.Role) {
			return nil, apperrors.ErrUnknownRole
		}
		user.Role = *req.Role
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
