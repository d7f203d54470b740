package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	apperrors "taskhub/internal/domain/errors"
	"taskhub/internal/models"
	"taskhub/internal/services"
)

type UserHandler struct {
	service  services.UserService
	validate *validator.Validate
}

func NewUserHandler(service services.UserService) *UserHandler {
	return &UserHandler{service: service, validate: validator.New()}
}

// POST /register
func (h *UserHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[user][register][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		log.Printf("[user][register][validate][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		log.Printf("[user][register][err] email=%q: %v", req.Email, err)
		respondError(c, err)
		return
	}
	log.Printf("[user][register][ok] id=%s email=%s", user.ID, user.Email)
	c.JSON(http.StatusCreated, user)
}

// GET /users
func (h *UserHandler) List(c *gin.Context) {
	userID, roleID := getPrincipal(c)
	log.Printf("[user][list] call by userID=%s role=%s", userID, roleID)

	page, limit, err := pageParams(c)
	if err != nil {
		log.Printf("[user][list][err] invalid page/limit q=%v", c.Request.URL.RawQuery)
		respondError(c, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), page, limit)
	if err != nil {
		log.Printf("[user][list][err] %v", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GET /users/:id
func (h *UserHandler) GetByID(c *gin.Context) {
	id, err := parseUserID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		log.Printf("[user][getByID][err] id=%s: %v", id, err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// PATCH /users/:id
func (h *UserHandler) Update(c *gin.Context) {
	userID, roleID := getPrincipal(c)
	log.Printf("[user][update] call by userID=%s role=%s id_param=%s", userID, roleID, c.Param("id"))

	id, err := parseUserID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[user][update][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one field is required"})
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		log.Printf("[user][update][validate][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		log.Printf("[user][update][err] id=%s: %v", id, err)
		respondError(c, err)
		return
	}
	log.Printf("[user][update][ok] id=%s", id)
	c.JSON(http.StatusOK, user)
}

// DELETE /users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	userID, roleID := getPrincipal(c)
	log.Printf("[user][delete] call by userID=%s role=%s id_param=%s", userID, roleID, c.Param("id"))

	id, err := parseUserID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		log.Printf("[user][delete][err] id=%s: %v", id, err)
		respondError(c, err)
		return
	}
	log.Printf("[user][delete][ok] id=%s", id)
	c.Status(http.StatusNoContent)
}

func parseUserID(raw string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", apperrors.ErrInvalidID
	}
	return id.String(), nil
}
