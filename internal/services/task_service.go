// internal/services/task_service.go
package services

import (
	"context"
	"log"
	"time"

	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

// TaskService defines the interface for task-related business logic.
type TaskService interface {
	Create(ctx context.Context, req *models.CreateTaskRequest, actorID string) (*models.Task, error)
	GetByID(ctx context.Context, id string) (*models.Task, error)
	List(ctx context.Context, filter models.TaskFilter, sort models.TaskSort, page, limit int) (*models.TaskPage, error)
	Update(ctx context.Context, id string, req *models.UpdateTaskRequest, actorID string) (*models.Task, error)
	Delete(ctx context.Context, id string) error
}

type taskService struct {
	repo   repositories.TaskRepository
	users  repositories.UserRepository
	events EventSink
}

// NewTaskService creates a new instance of TaskService.
func NewTaskService(repo repositories.TaskRepository, users repositories.UserRepository, events EventSink) TaskService {
	return &taskService{repo: repo, users: users, events: events}
}

func (s *taskService) Create(ctx context.Context, req *models.CreateTaskRequest, actorID string) (*models.Task, error) {
	task := &models.Task{
		CreatedBy:               actorID,
		UpdatedBy:               actorID,
		Title:                   req.Title,
		Content:                 req.Content,
		Description:             req.Description,
		ShortID:                 req.ShortID,
		Attachments:             orEmpty(req.Attachments),
		Comments:                commentsFromInput(req.Comments),
		Assignees:               req.Assignees,
		Status:                  req.Status,
		NotifyAssigneesOnChange: true,
		SubTasks:                orEmpty(req.SubTasks),
		Priority:                req.Priority,
		DueDate:                 req.DueDate,
		Labels:                  orEmpty(req.Labels),
	}
	if req.NotifyAssigneesOnChange != nil {
		task.NotifyAssigneesOnChange = *req.NotifyAssigneesOnChange
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}

	if err := s.repo.Store(ctx, task); err != nil {
		return nil, err
	}

	s.notifyAssignees(ctx, task, EventTaskCreated, map[string]string{
		"title":    task.Title,
		"priority": string(task.Priority),
	})
	return task, nil
}

func (s *taskService) GetByID(ctx context.Context, id string) (*models.Task, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *taskService) List(ctx context.Context, filter models.TaskFilter, sort models.TaskSort, page, limit int) (*models.TaskPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	results, total, err := s.repo.FindPage(ctx, filter, sort, limit, offset)
	if err != nil {
		return nil, err
	}
	totalPages := (total + limit - 1) / limit
	return &models.TaskPage{
		Results:      results,
		Page:         page,
		Limit:        limit,
		TotalPages:   totalPages,
		TotalResults: total,
	}, nil
}

func (s *taskService) Update(ctx context.Context, id string, req *models.UpdateTaskRequest, actorID string) (*models.Task, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	update := *current
	statusBefore := current.Status

	if req.Title != nil {
		update.Title = *req.Title
	}
	if req.Content != nil {
		update.Content = *req.Content
	}
	if req.Description != nil {
		update.Description = *req.Description
	}
	if req.Attachments != nil {
		update.Attachments = orEmpty(*req.Attachments)
	}
	if req.Comments != nil {
		update.Comments = commentsFromInput(*req.Comments)
	}
	if req.Assignees != nil {
		update.Assignees = *req.Assignees
	}
	if req.Status != nil {
		update.Status = *req.Status
	}
	if req.NotifyAssigneesOnChange != nil {
		update.NotifyAssigneesOnChange = *req.NotifyAssigneesOnChange
	}
	if req.SubTasks != nil {
		update.SubTasks = orEmpty(*req.SubTasks)
	}
	if req.Priority != nil {
		update.Priority = *req.Priority
	}
	if req.DueDate != nil {
		update.DueDate = req.DueDate
	}
	if req.Labels != nil {
		update.Labels = orEmpty(*req.Labels)
	}

	update.UpdatedBy = actorID
	update.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, &update); err != nil {
		return nil, err
	}

	if update.NotifyAssigneesOnChange && update.Status != statusBefore {
		s.notifyAssignees(ctx, &update, EventTaskStatusChanged, map[string]string{
			"title":  update.Title,
			"status": update.Status,
		})
	}
	return &update, nil
}

func (s *taskService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// notifyAssignees enqueues one event per assignee. Delivery happens out of
// band; a provider outage never fails the mutation that triggered it.
func (s *taskService) notifyAssignees(ctx context.Context, task *models.Task, kind EventKind, payload map[string]string) {
	if s.events == nil {
		return
	}
	for _, assigneeID := range task.Assignees {
		user, err := s.users.GetByID(ctx, assigneeID)
		if err != nil {
			log.Printf("[task][notify] lookup assignee=%s failed: %v", assigneeID, err)
			continue
		}
		s.events.Enqueue(Event{
			Kind:    kind,
			To:      Recipient{ID: user.ID, Email: user.Email},
			Payload: payload,
		})
	}
}

func orEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func commentsFromInput(in []models.TaskCommentInput) []models.TaskComment {
	out := make([]models.TaskComment, 0, len(in))
	for _, c := range in {
		createdAt := time.Now()
		if c.CreatedAt != nil {
			createdAt = *c.CreatedAt
		}
		out = append(out, models.TaskComment{User: c.User, Content: c.Content, CreatedAt: createdAt})
	}
	return out
}
