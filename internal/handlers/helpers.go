package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskhub/internal/authz"
	apperrors "taskhub/internal/domain/errors"
	"taskhub/internal/middleware"
)

func getPrincipal(c *gin.Context) (userID string, role authz.Role) {
	if v, ok := c.Get(middleware.CtxUserID); ok {
		userID, _ = v.(string)
	}
	if v, ok := c.Get(middleware.CtxRole); ok {
		role, _ = v.(authz.Role)
	}
	return
}

// respondError maps domain error kinds onto HTTP statuses. Anything
// unrecognized is a 500 with a generic body.
func respondError(c *gin.Context, err error) {
	switch err {
	case apperrors.ErrValidation, apperrors.ErrInvalidID, apperrors.ErrUnknownRole:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperrors.ErrUnauthenticated, apperrors.ErrInvalidLogin:
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case apperrors.ErrForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case apperrors.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperrors.ErrEmailTaken:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": apperrors.ErrInternal.Error()})
	}
}

// pageParams reads page and limit. Omitted values get defaults; values that
// are present but not positive integers are a client error.
func pageParams(c *gin.Context) (page, limit int, err error) {
	page, limit = 1, 10
	if raw, ok := c.GetQuery("page"); ok {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return 0, 0, apperrors.ErrValidation
		}
	}
	if raw, ok := c.GetQuery("limit"); ok {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return 0, 0, apperrors.ErrValidation
		}
	}
	return page, limit, nil
}
