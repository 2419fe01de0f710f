package services

import (
	"context"
	"testing"
	"time"

	"github.com/thapar/projectportal/internal/app/models"
)

type recordingNotificationRepo struct {
	fakeNotificationRepo
	notifications []*models.Notification
	markedRead    [][2]int64 // (notificationID, userID) pairs
	markedAll     []int64
}

func (r *recordingNotificationRepo) ListByUser(ctx context.Context, userID int64, offset uint64, limit int) ([]*models.Notification, int64, error) {
	var out []*models.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, int64(len(out)), nil
}

func (r *recordingNotificationRepo) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var unread int64
	for _, n := range r.notifications {
		if n.UserID == userID && !n.IsRead {
			unread++
		}
	}
	return unread, nil
}

func (r *recordingNotificationRepo) MarkRead(ctx context.Context, id, userID int64) error {
	r.markedRead = append(r.markedRead, [2]int64{id, userID})
	return nil
}

func (r *recordingNotificationRepo) MarkAllRead(ctx context.Context, userID int64) error {
	r.markedAll = append(r.markedAll, userID)
	return nil
}

func TestNotificationList(t *testing.T) {
	projectID := int64(500)
	repo := &recordingNotificationRepo{
		notifications: []*models.Notification{
			{ID: 1, UserID: 7, Type: models.NotificationProjectApproval, Message: "approved", ProjectID: &projectID, CreatedAt: time.Now()},
			{ID: 2, UserID: 7, Type: models.NotificationProjectUpdate, Message: "updated", IsRead: true, CreatedAt: time.Now()},
			{ID: 3, UserID: 9, Type: models.NotificationProjectUpdate, Message: "someone else's", CreatedAt: time.Now()},
		},
	}
	service := NewNotificationService(repo)

	resp, err := service.List(context.Background(), 7, 1, 10)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(resp.Notifications) != 2 {
		t.Fatalf("got %d notifications, want 2", len(resp.Notifications))
	}
	if resp.UnreadCount != 1 {
		t.Errorf("unreadCount = %d, want 1", resp.UnreadCount)
	}
	if resp.Notifications[0].ProjectID == nil || *resp.Notifications[0].ProjectID != projectID {
		t.Errorf("projectID not carried through: %+v", resp.Notifications[0])
	}
	if resp.Pagination.TotalItems != 2 {
		t.Errorf("totalItems = %d, want 2", resp.Pagination.TotalItems)
	}
}

func TestNotificationMarkRead(t *testing.T) {
	repo := &recordingNotificationRepo{}
	service := NewNotificationService(repo)

	if err := service.MarkRead(context.Background(), 7, 3); err != nil {
		t.Fatalf("MarkRead returned error: %v", err)
	}
	// The repository call is scoped to the owner
	if len(repo.markedRead) != 1 || repo.markedRead[0] != [2]int64{3, 7} {
		t.Errorf("markedRead = %v, want [[3 7]]", repo.markedRead)
	}

	if err := service.MarkAllRead(context.Background(), 7); err != nil {
		t.Fatalf("MarkAllRead returned error: %v", err)
	}
	if len(repo.markedAll) != 1 || repo.markedAll[0] != 7 {
		t.Errorf("markedAll = %v, want [7]", repo.markedAll)
	}
}
