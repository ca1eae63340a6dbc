package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"talentvault_backend/internal/appErrors"
	"talentvault_backend/internal/repositories"
)

type BaseHandler struct{}

func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// GetAndAuthorizeUserID extracts the authenticated user id set by the auth
// middleware. Returns false (and writes 401) when it is missing.
func (h *BaseHandler) GetAndAuthorizeUserID(c *gin.Context) (string, bool) {
	val, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return "", false
	}
	userID, ok := val.(string)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return "", false
	}
	return userID, true
}

// BindJSON binds and validates the request body, writing a 400 on failure.
func (h *BaseHandler) BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		appErrors.HandleError(c, appErrors.ErrValidationFailed.WithDetails(err.Error()))
		return false
	}
	return true
}

// HandleServiceError maps a service error onto the response. Repository
// sentinel errors are translated to their AppError counterparts first.
func (h *BaseHandler) HandleServiceError(c *gin.Context, err error) {
	switch {
	case appErrors.Is(err, repositories.ErrNotificationNotFound):
		err = appErrors.ErrNotificationNotFound
	case appErrors.Is(err, repositories.ErrUserNotFound):
		err = appErrors.ErrUserNotFound
	case appErrors.Is(err, repositories.ErrBroadcastNotFound):
		err = appErrors.ErrBroadcastNotFound
	case appErrors.Is(err, repositories.ErrInvalidNotificationData):
		err = appErrors.ErrValidationFailed.WithDetails(err.Error())
	}
	appErrors.HandleError(c, err)
}

// ParsePagination reads page/page_size query parameters with defaults.
func ParsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
