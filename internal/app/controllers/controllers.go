// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/thapar/projectportal/internal/app/models/dto"
)

// currentUserID reads the authenticated user ID placed on the context by the
// JWT middleware. Writes a 401 response and returns false when it is missing.
func currentUserID(ctx *gin.Context) (int64, bool) {
	value, exists := ctx.Get("userID")
	if !exists {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return 0, false
	}

	userID, ok := value.(int64)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid authentication context")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return 0, false
	}

	return userID, true
}

// pathID parses a positive int64 path parameter. Writes a 400 response and
// returns false when the value is not a valid ID.
func pathID(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id < 1 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid "+name)
		errorDetail = errorDetail.WithDetails(name + " must be a positive number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}
