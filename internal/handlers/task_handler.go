package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	apperrors "taskhub/internal/domain/errors"
	"taskhub/internal/models"
	"taskhub/internal/services"
)

type TaskHandler struct {
	service  services.TaskService
	validate *validator.Validate
}

func NewTaskHandler(service services.TaskService) *TaskHandler {
	return &TaskHandler{service: service, validate: validator.New()}
}

// POST /tasks
func (h *TaskHandler) Create(c *gin.Context) {
	userID, roleID := getPrincipal(c)
	log.Printf("[task][create] call by userID=%s role=%s", userID, roleID)

	var req models.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[task][create][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		log.Printf("[task][create][validate][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.service.Create(c.Request.Context(), &req, userID)
	if err != nil {
		log.Printf("[task][create][err] %v", err)
		respondError(c, err)
		return
	}
	log.Printf("[task][create][ok] id=%s title=%q assignees=%d", task.ID, task.Title, len(task.Assignees))
	c.JSON(http.StatusCreated, task)
}

// GET /tasks
func (h *TaskHandler) List(c *gin.Context) {
	userID, roleID := getPrincipal(c)
	log.Printf("[task][list] call by userID=%s role=%s q=%v", userID, roleID, c.Request.URL.RawQuery)

	var filter models.TaskFilter
	if v, ok := c.GetQuery("assignees"); ok {
		filter.Assignee = &v
	}
	if v, ok := c.GetQuery("createdBy"); ok {
		filter.CreatedBy = &v
	}
	if v, ok := c.GetQuery("status"); ok {
		filter.Status = &v
	}
	if v, ok := c.GetQuery("createdAt"); ok {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			log.Printf("[task][list][err] invalid createdAt=%q: %v", v, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid createdAt (RFC3339)"})
			return
		}
		filter.CreatedAt = &t
	}

	sort, err := parseSort(c.Query("sortBy"))
	if err != nil {
		log.Printf("[task][list][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, limit, err := pageParams(c)
	if err != nil {
		log.Printf("[task][list][err] invalid page/limit q=%v", c.Request.URL.RawQuery)
		respondError(c, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), filter, sort, page, limit)
	if err != nil {
		log.Printf("[task][list][err] %v", err)
		respondError(c, err)
		return
	}
	log.Printf("[task][list][ok] count=%d total=%d", len(result.Results), result.TotalResults)
	c.JSON(http.StatusOK, result)
}

// GET /tasks/:id
func (h *TaskHandler) GetByID(c *gin.Context) {
	userID, roleID := getPrincipal(c)
	log.Printf("[task][getByID] call by userID=%s role=%s id_param=%s", userID, roleID, c.Param("id"))

	id, err := parseTaskID(c.Param("id"))
	if err != nil {
		log.Printf("[task][getByID][err] invalid id: %v", err)
		respondError(c, err)
		return
	}

	task, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		log.Printf("[task][getByID][err] id=%s: %v", id, err)
		respondError(c, err)
		return
	}
	log.Printf("[task][getByID][ok] id=%s", id)
	c.JSON(http.StatusOK, task)
}

// PATCH /tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	userID, roleID := getPrincipal(c)
	log.Printf("[task][update] call by userID=%s role=%s id_param=%s", userID, roleID, c.Param("id"))

	id, err := parseTaskID(c.Param("id"))
	if err != nil {
		log.Printf("[task][update][err] invalid id: %v", err)
		respondError(c, err)
		return
	}

	var req models.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[task][update][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Empty() {
		log.Printf("[task][update][err] empty patch id=%s", id)
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one field is required"})
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		log.Printf("[task][update][validate][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.service.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		log.Printf("[task][update][err] id=%s: %v", id, err)
		respondError(c, err)
		return
	}
	log.Printf("[task][update][ok] id=%s", id)
	c.JSON(http.StatusOK, task)
}

// DELETE /tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	userID, roleID := getPrincipal(c)
	log.Printf("[task][delete] call by userID=%s role=%s id_param=%s", userID, roleID, c.Param("id"))

	id, err := parseTaskID(c.Param("id"))
	if err != nil {
		log.Printf("[task][delete][err] invalid id: %v", err)
		respondError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		log.Printf("[task][delete][err] id=%s: %v", id, err)
		respondError(c, err)
		return
	}
	log.Printf("[task][delete][ok] id=%s", id)
	c.Status(http.StatusNoContent)
}

// parseTaskID distinguishes a malformed identifier (400) from an absent one
// (404, decided later by the store).
func parseTaskID(raw string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", apperrors.ErrInvalidID
	}
	return id.String(), nil
}

var sortableTaskFields = map[string]bool{
	"title":     true,
	"priority":  true,
	"status":    true,
	"dueDate":   true,
	"createdAt": true,
	"updatedAt": true,
}

// parseSort accepts "field:asc" or "field:desc"; a bare field means
// ascending. Empty input means natural order.
func parseSort(raw string) (models.TaskSort, error) {
	if raw == "" {
		return models.TaskSort{}, nil
	}
	field := raw
	desc := false
	if i := strings.IndexByte(raw, ':'); i >= 0 {
		field = raw[:i]
		switch raw[i+1:] {
		case "asc":
		case "desc":
			desc = true
		default:
			return models.TaskSort{}, apperrors.ErrValidation
		}
	}
	if !sortableTaskFields[field] {
		return models.TaskSort{}, apperrors.ErrValidation
	}
	return models.TaskSort{Field: field, Desc: desc}, nil
}
