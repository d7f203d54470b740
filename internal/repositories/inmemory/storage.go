// Package inmemory holds map-backed implementations of the repository
// contracts. They back the tests and serve as a fallback when no database is
// reachable.
package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "taskhub/internal/domain/errors"
	"taskhub/internal/models"
)

type TaskStorage struct {
	mu    sync.RWMutex
	tasks map[string]models.Task
	order []string // insertion order, the store's natural order
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{tasks: make(map[string]models.Task)}
}

func (s *TaskStorage) Store(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	task.ID = uuid.New().String()
	task.CreatedAt = now
	task.UpdatedAt = now
	s.tasks[task.ID] = *task
	s.order = append(s.order, task.ID)
	return nil
}

func (s *TaskStorage) FindByID(ctx context.Context, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, exists := s.tasks[id]
	if !exists {
		return nil, apperrors.ErrNotFound
	}
	return &task, nil
}

func (s *TaskStorage) FindPage(ctx context.Context, filter models.TaskFilter, sortBy models.TaskSort, limit, offset int) ([]models.Task, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []models.Task{}
	for _, id := range s.order {
		t, exists := s.tasks[id]
		if !exists {
			continue
		}
		if matchesFilter(&t, filter) {
			matched = append(matched, t)
		}
	}
	sortTasks(matched, sortBy)

	total := len(matched)
	if offset >= total {
		return []models.Task{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (s *TaskStorage) Update(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; !exists {
		return apperrors.ErrNotFound
	}
	s.tasks[task.ID] = *task
	return nil
}

func (s *TaskStorage) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[id]; !exists {
		return apperrors.ErrNotFound
	}
	delete(s.tasks, id)
	for i, tid := range s.order {
		if tid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func matchesFilter(t *models.Task, filter models.TaskFilter) bool {
	if filter.Assignee != nil {
		found := false
		for _, a := range t.Assignees {
			if a == *filter.Assignee {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.CreatedBy != nil && t.CreatedBy != *filter.CreatedBy {
		return false
	}
	if filter.CreatedAt != nil && !t.CreatedAt.Equal(*filter.CreatedAt) {
		return false
	}
	if filter.Status != nil && t.Status != *filter.Status {
		return false
	}
	return true
}

func sortTasks(tasks []models.Task, by models.TaskSort) {
	if by.Field == "" {
		return
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := &tasks[i], &tasks[j]
		var less bool
		switch by.Field {
		case "title":
			less = strings.Compare(a.Title, b.Title) < 0
		case "priority":
			less = strings.Compare(string(a.Priority), string(b.Priority)) < 0
		case "status":
			less = strings.Compare(a.Status, b.Status) < 0
		case "dueDate":
			less = dueBefore(a.DueDate, b.DueDate)
		case "createdAt":
			less = a.CreatedAt.Before(b.CreatedAt)
		case "updatedAt":
			less = a.UpdatedAt.Before(b.UpdatedAt)
		default:
			return false
		}
		if by.Desc {
			return !less
		}
		return less
	})
}

func dueBefore(a, b *time.Time) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return a.Before(*b)
}

type UserStorage struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewUserStorage() *UserStorage {
	return &UserStorage{users: make(map[string]models.User)}
}

func (s *UserStorage) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return apperrors.ErrEmailTaken
		}
	}
	now := time.Now()
	user.ID = uuid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return nil
}

func (s *UserStorage) GetByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[id]
	if !exists {
		return nil, apperrors.ErrNotFound
	}
	return &user, nil
}

func (s *UserStorage) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s *UserStorage) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })

	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	out := make([]*models.User, 0, end-offset)
	for i := offset; i < end; i++ {
		u := all[i]
		out = append(out, &u)
	}
	return out, nil
}

func (s *UserStorage) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

func (s *UserStorage) Update(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; !exists {
		return apperrors.ErrNotFound
	}
	for id, existing := range s.users {
		if id != user.ID && existing.Email == user.Email {
			return apperrors.ErrEmailTaken
		}
	}
	user.UpdatedAt = time.Now()
	s.users[user.ID] = *user
	return nil
}

func (s *UserStorage) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[id]
	if !exists {
		return apperrors.ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now()
	s.users[id] = user
	return nil
}

func (s *UserStorage) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[id]; !exists {
		return apperrors.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

type ResetStorage struct {
	mu     sync.RWMutex
	resets map[string]models.PasswordReset
}

func NewResetStorage() *ResetStorage {
	return &ResetStorage{resets: make(map[string]models.PasswordReset)}
}

func (s *ResetStorage) Create(ctx context.Context, userID, token string, expiresAt time.Time) (*models.PasswordReset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pr := models.PasswordReset{
		ID:        uuid.New().String(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	s.resets[pr.ID] = pr
	return &pr, nil
}

func (s *ResetStorage) GetByToken(ctx context.Context, token string) (*models.PasswordReset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, pr := range s.resets {
		if pr.Token == token {
			p := pr
			return &p, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s *ResetStorage) MarkUsed(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pr, exists := s.resets[id]
	if !exists {
		return apperrors.ErrNotFound
	}
	now := time.Now()
	pr.UsedAt = &now
	s.resets[id] = pr
	return nil
}
