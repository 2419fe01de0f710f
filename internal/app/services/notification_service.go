package services

import (
	"context"

	"github.com/thapar/projectportal/internal/app/models/dto"
	"github.com/thapar/projectportal/internal/app/repositories"
	"github.com/thapar/projectportal/internal/pkg/helpers"
)

// NotificationService exposes a user's notification feed
type NotificationService interface {
	List(ctx context.Context, userID int64, page, pageSize int) (*dto.NotificationListResponse, error)
	MarkRead(ctx context.Context, userID, notificationID int64) error
	MarkAllRead(ctx context.Context, userID int64) error
}

// NotificationServiceImpl implements NotificationService
type NotificationServiceImpl struct {
	notificationRepo repositories.INotificationRepository
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notificationRepo repositories.INotificationRepository) NotificationService {
	return &NotificationServiceImpl{notificationRepo: notificationRepo}
}

// List returns the user's notifications newest first together with the unread count
func (s *NotificationServiceImpl) List(ctx context.Context, userID int64, page, pageSize int) (*dto.NotificationListResponse, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, pageSize)

	notifications, total, err := s.notificationRepo.ListByUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}

	unread, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]dto.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		items = append(items, dto.NotificationResponse{
			ID:        n.ID,
			Type:      n.Type,
			Message:   n.Message,
			ProjectID: n.ProjectID,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}

	return &dto.NotificationListResponse{
		Notifications: items,
		UnreadCount:   unread,
		Pagination:    helpers.NewPaginationInfo(total, page, pageSize),
	}, nil
}

// MarkRead marks a single notification as read for its owner
func (s *NotificationServiceImpl) MarkRead(ctx context.Context, userID, notificationID int64) error {
	return s.notificationRepo.MarkRead(ctx, notificationID, userID)
}

// MarkAllRead marks all of the user's notifications as read
func (s *NotificationServiceImpl) MarkAllRead(ctx context.Context, userID int64) error {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}
