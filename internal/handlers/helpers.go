package handlers

import (
	"github.com/gin-gonic/gin"

	"entityaudit/internal/middleware"
)

// ErrorDetail represents error details in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

func respondWithError(c *gin.Context, err error) {
	middleware.RespondWithError(c, err)
}
