package models

import (
	"time"
)

// Notification defines the notification model based on the 'notifications' table
type Notification struct {
	ID        int64            `json:"id" db:"id"`
	UserID    int64            `json:"userId" db:"user_id"`
	Type      NotificationType `json:"type" db:"type"`
	Message   string           `json:"message" db:"message"`
	ProjectID *int64           `json:"projectId,omitempty" db:"project_id"` // Nullable, set for project events
	IsRead    bool             `json:"isRead" db:"is_read"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`
}
