package appErrors

import (
	"github.com/gin-gonic/gin"

	"talentvault_backend/internal/logger"
)

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error *AppError `json:"error"`
}

// HandleError writes an error to a gin context, mapping unknown errors to 500.
func HandleError(c *gin.Context, err error) {
	var appErr *AppError
	if !As(err, &appErr) {
		appErr = InternalError(err)
	}

	if appErr.HTTPCode >= 500 {
		logger.Error("server error", "error", err, "path", c.FullPath())
	}

	c.JSON(appErr.HTTPCode, ErrorResponse{Error: appErr})
}
