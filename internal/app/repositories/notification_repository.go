package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/thapar/projectportal/internal/app/models"
	"github.com/thapar/projectportal/internal/db"
	"github.com/thapar/projectportal/internal/pkg/apperrors"
)

// INotificationRepository defines the interface for notification database operations
type INotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID int64, offset uint64, limit int) ([]*models.Notification, int64, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)

	// MarkRead marks one notification read; scoped to the owner
	MarkRead(ctx context.Context, id, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) error
}

// NotificationRepository handles notification database operations
type NotificationRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(database *db.PostgresDB) *NotificationRepository {
	return &NotificationRepository{
		db: database,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// insertNotification inserts a notification inside an existing transaction
func insertNotification(ctx context.Context, tx pgx.Tx, notification *models.Notification) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO notifications (user_id, type, message, project_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		notification.UserID, notification.Type, notification.Message, notification.ProjectID).
		Scan(&notification.ID, &notification.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating notification: %w", err)
	}
	return nil
}

// Create inserts a notification outside a transaction
func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO notifications (user_id, type, message, project_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		notification.UserID, notification.Type, notification.Message, notification.ProjectID).
		Scan(&notification.ID, &notification.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating notification: %w", err)
	}
	return nil
}

// ListByUser retrieves a user's notifications, newest first
func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64, offset uint64, limit int) ([]*models.Notification, int64, error) {
	var total int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("error counting notifications: %w", err)
	}

	sql, args, err := r.sb.Select("id", "user_id", "type", "message", "project_id", "is_read", "created_at").
		From("notifications").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Offset(offset).
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build notification list query: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.ProjectID, &n.IsRead, &n.CreatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, total, nil
}

// CountUnread counts a user's unread notifications
func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks one notification read, scoped to the owner
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID int64) error {
	cmdTag, err := r.db.Pool.Exec(ctx,
		`UPDATE notifications SET is_read = true WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("error marking notification read: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead marks all of a user's notifications read
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE notifications SET is_read = true WHERE user_id = $1 AND is_read = false`, userID)
	if err != nil {
		return fmt.Errorf("error marking notifications read: %w", err)
	}
	return nil
}
