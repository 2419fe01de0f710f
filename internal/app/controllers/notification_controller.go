package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thapar/projectportal/internal/app/models/dto"
	"github.com/thapar/projectportal/internal/app/services"
	"github.com/thapar/projectportal/internal/middleware"
	"github.com/thapar/projectportal/internal/pkg/helpers"
)

// NotificationController handles the authenticated user's notification feed
type NotificationController struct {
	notificationService services.NotificationService
}

// NewNotificationController creates a new NotificationController
func NewNotificationController(notificationService services.NotificationService) *NotificationController {
	return &NotificationController{notificationService: notificationService}
}

// ListNotifications lists the caller's notifications
// @Summary List notifications
// @Description Returns the caller's notifications newest first together with the unread count
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param pageSize query int false "Page size (default 10, max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.NotificationListResponse} "Notifications retrieved successfully"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /notifications [get]
func (c *NotificationController) ListNotifications(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	page, pageSize := helpers.ParsePaginationParams(ctx)

	list, err := c.notificationService.List(ctx.Request.Context(), userID, page, pageSize)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(list))
}

// MarkNotificationRead marks one notification as read
// @Summary Mark a notification read
// @Description Marks one of the caller's notifications as read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Notification marked read"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Notification not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /notifications/{id}/read [put]
func (c *NotificationController) MarkNotificationRead(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	notificationID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.notificationService.MarkRead(ctx.Request.Context(), userID, notificationID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Notification marked read"}))
}

// MarkAllNotificationsRead marks every notification of the caller as read
// @Summary Mark all notifications read
// @Description Marks all of the caller's notifications as read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "All notifications marked read"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /notifications/read-all [put]
func (c *NotificationController) MarkAllNotificationsRead(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	if err := c.notificationService.MarkAllRead(ctx.Request.Context(), userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "All notifications marked read"}))
}
