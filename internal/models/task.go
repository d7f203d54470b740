// internal/models/task.go
package models

import "time"

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// TaskComment is an embedded comment on a task. Comments live inside the
// task record, they are not addressable on their own.
type TaskComment struct {
	User      string    `json:"user"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Task represents the structure of a task in the system.
type Task struct {
	ID                      string        `json:"id"`
	CreatedBy               string        `json:"createdBy"`
	UpdatedBy               string        `json:"updatedBy"`
	Title                   string        `json:"title"`
	Content                 string        `json:"content"`
	Description             string        `json:"description,omitempty"`
	ShortID                 string        `json:"shortId,omitempty"`
	Attachments             []string      `json:"attachments"`
	Comments                []TaskComment `json:"comments"`
	Assignees               []string      `json:"assignees"`
	Status                  string        `json:"status"`
	NotifyAssigneesOnChange bool          `json:"notifyAssigneesOnChange"`
	SubTasks                []string      `json:"subTasks"`
	Priority                TaskPriority  `json:"priority"`
	DueDate                 *time.Time    `json:"dueDate,omitempty"`
	Labels                  []string      `json:"labels"`
	CreatedAt               time.Time     `json:"createdAt"`
	UpdatedAt               time.Time     `json:"updatedAt"`
}

// TaskFilter defines the available exact-match parameters for listing tasks.
// Assignee matches membership in the assignees list.
type TaskFilter struct {
	Assignee  *string
	CreatedBy *string
	CreatedAt *time.Time
	Status    *string
}

// TaskSort is a parsed "field:asc|desc" sort parameter. The zero value means
// the store's natural order.
type TaskSort struct {
	Field string
	Desc  bool
}

// TaskPage is the list-response envelope: one page of results plus offset
// pagination metadata.
type TaskPage struct {
	Results      []Task `json:"results"`
	Page         int    `json:"page"`
	Limit        int    `json:"limit"`
	TotalPages   int    `json:"totalPages"`
	TotalResults int    `json:"totalResults"`
}

type TaskCommentInput struct {
	User      string     `json:"user" validate:"required,uuid"`
	Content   string     `json:"content" validate:"required"`
	CreatedAt *time.Time `json:"createdAt"`
}

type CreateTaskRequest struct {
	Title                   string             `json:"title" validate:"required"`
	Content                 string             `json:"content" validate:"required"`
	Description             string             `json:"description"`
	ShortID                 string             `json:"shortId"`
	Attachments             []string           `json:"attachments"`
	Comments                []TaskCommentInput `json:"comments" validate:"omitempty,dive"`
	Assignees               []string           `json:"assignees" validate:"required,min=1,dive,uuid"`
	Status                  string             `json:"status" validate:"required,uuid"`
	NotifyAssigneesOnChange *bool              `json:"notifyAssigneesOnChange"`
	SubTasks                []string           `json:"subTasks" validate:"omitempty,dive,uuid"`
	Priority                TaskPriority       `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate                 *time.Time         `json:"dueDate"`
	Labels                  []string           `json:"labels"`
}

// UpdateTaskRequest is a partial update; nil fields are left untouched.
type UpdateTaskRequest struct {
	Title                   *string             `json:"title" validate:"omitempty,min=1"`
	Content                 *string             `json:"content" validate:"omitempty,min=1"`
	Description             *string             `json:"description"`
	Attachments             *[]string           `json:"attachments"`
	Comments                *[]TaskCommentInput `json:"comments" validate:"omitempty,dive"`
	Assignees               *[]string           `json:"assignees" validate:"omitempty,min=1,dive,uuid"`
	Status                  *string             `json:"status" validate:"omitempty,uuid"`
	NotifyAssigneesOnChange *bool               `json:"notifyAssigneesOnChange"`
	SubTasks                *[]string           `json:"subTasks" validate:"omitempty,dive,uuid"`
	Priority                *TaskPriority       `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate                 *time.Time          `json:"dueDate"`
	Labels                  *[]string           `json:"labels"`
}

// Empty reports whether the patch carries no fields at all.
func (r *UpdateTaskRequest) Empty() bool {
	return r.Title == nil && r.Content == nil && r.Description == nil &&
		r.Attachments == nil && r.Comments == nil && r.Assignees == nil &&
		r.Status == nil && r.NotifyAssigneesOnChange == nil && r.SubTasks == nil &&
		r.Priority == nil && r.DueDate == nil && r.Labels == nil
}
