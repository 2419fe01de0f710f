package dto

import (
	"time"

	"github.com/thapar/projectportal/internal/app/models"
)

// NotificationResponse represents a single notification
type NotificationResponse struct {
	ID        int64                   `json:"id"`
	Type      models.NotificationType `json:"type"`
	Message   string                  `json:"message"`
	ProjectID *int64                  `json:"projectId,omitempty"`
	IsRead    bool                    `json:"isRead"`
	CreatedAt time.Time               `json:"createdAt"`
}

// NotificationListResponse represents a paginated notification listing
type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	UnreadCount   int64                  `json:"unreadCount"`
	Pagination    PaginationInfo         `json:"pagination"`
}
