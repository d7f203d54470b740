package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"

	apperrors "taskhub/internal/domain/errors"
	"taskhub/internal/models"
)

type TaskRepository interface {
	Store(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id string) (*models.Task, error)
	FindPage(ctx context.Context, filter models.TaskFilter, sort models.TaskSort, limit, offset int) ([]models.Task, int, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id string) error
}

type taskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `id, created_by, updated_by, title, content, description, short_id,
	attachments, comments, assignees, status, notify_assignees_on_change,
	sub_tasks, priority, due_date, labels, created_at, updated_at`

func (r *taskRepository) Store(ctx context.Context, task *models.Task) error {
	comments, err := json.Marshal(task.Comments)
	if err != nil {
		return fmt.Errorf("marshal comments: %w", err)
	}
	query := `
		INSERT INTO tasks (
			created_by, updated_by, title, content, description, short_id,
			attachments, comments, assignees, status, notify_assignees_on_change,
			sub_tasks, priority, due_date, labels
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING id, created_at, updated_at`
	return r.db.QueryRowContext(ctx, query,
		task.CreatedBy, task.UpdatedBy, task.Title, task.Content, task.Description, task.ShortID,
		pq.Array(task.Attachments), comments, pq.Array(task.Assignees), task.Status,
		task.NotifyAssigneesOnChange, pq.Array(task.SubTasks), task.Priority,
		task.DueDate, pq.Array(task.Labels),
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

func (r *taskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) FindPage(ctx context.Context, filter models.TaskFilter, sort models.TaskSort, limit, offset int) ([]models.Task, int, error) {
	conditions := []string{}
	args := []interface{}{}
	argID := 1

	if filter.Assignee != nil {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(assignees)", argID))
		args = append(args, *filter.Assignee)
		argID++
	}
	if filter.CreatedBy != nil {
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", argID))
		args = append(args, *filter.CreatedBy)
		argID++
	}
	if filter.CreatedAt != nil {
		conditions = append(conditions, fmt.Sprintf("created_at = $%d", argID))
		args = append(args, *filter.CreatedAt)
		argID++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argID))
		args = append(args, *filter.Status)
		argID++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + taskColumns + " FROM tasks" + where
	if col := sortColumn(sort.Field); col != "" {
		dir := "ASC"
		if sort.Desc {
			dir = "DESC"
		}
		query += " ORDER BY " + col + " " + dir
	}
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argID, argID+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, total, rows.Err()
}

func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	comments, err := json.Marshal(task.Comments)
	if err != nil {
		return fmt.Errorf("marshal comments: %w", err)
	}
	query := `
		UPDATE tasks SET
			updated_by=$1, title=$2, content=$3, description=$4,
			attachments=$5, comments=$6, assignees=$7, status=$8,
			notify_assignees_on_change=$9, sub_tasks=$10, priority=$11,
			due_date=$12, labels=$13, updated_at=$14
		WHERE id=$15`
	res, err := r.db.ExecContext(ctx, query,
		task.UpdatedBy, task.Title, task.Content, task.Description,
		pq.Array(task.Attachments), comments, pq.Array(task.Assignees), task.Status,
		task.NotifyAssigneesOnChange, pq.Array(task.SubTasks), task.Priority,
		task.DueDate, pq.Array(task.Labels), task.UpdatedAt, task.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// sortColumn maps an exposed sort field to its column. Unknown fields map to
// the empty string, which means natural order; the handler rejects unknown
// fields before they get here.
func sortColumn(field string) string {
	switch field {
	case "title":
		return "title"
	case "priority":
		return "priority"
	case "status":
		return "status"
	case "dueDate":
		return "due_date"
	case "createdAt":
		return "created_at"
	case "updatedAt":
		return "updated_at"
	}
	return ""
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	t := &models.Task{}
	var (
		description sql.NullString
		shortID     sql.NullString
		comments    []byte
		dueDate     sql.NullTime
	)
	err := row.Scan(
		&t.ID, &t.CreatedBy, &t.UpdatedBy, &t.Title, &t.Content, &description, &shortID,
		pq.Array(&t.Attachments), &comments, pq.Array(&t.Assignees), &t.Status,
		&t.NotifyAssigneesOnChange, pq.Array(&t.SubTasks), &t.Priority,
		&dueDate, pq.Array(&t.Labels), &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Description = description.String
	t.ShortID = shortID.String
	if dueDate.Valid {
		d := dueDate.Time
		t.DueDate = &d
	}
	if len(comments) > 0 {
		if err := json.Unmarshal(comments, &t.Comments); err != nil {
			return nil, fmt.Errorf("unmarshal comments: %w", err)
		}
	}
	if t.Comments == nil {
		t.Comments = []models.TaskComment{}
	}
	if t.Attachments == nil {
		t.Attachments = []string{}
	}
	if t.SubTasks == nil {
		t.SubTasks = []string{}
	}
	if t.Labels == nil {
		t.Labels = []string{}
	}
	return t, nil
}
