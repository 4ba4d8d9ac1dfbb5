package postgresql

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/stewarddata/steward-internal/internal/common/apperrors"
	"github.com/stewarddata/steward-internal/internal/common/uuid7"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/dberror"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/models"
)

// CreateNotification inserts a new notification into the database.
func (mm *metadataManager) CreateNotification(ctx context.Context, n *models.Notification) apperrors.Error {
	if n.Title == "" {
		return dberror.ErrInvalidInput.Msg("notification title cannot be empty")
	}
	if n.Type == "" {
		return dberror.ErrInvalidInput.Msg("notification type cannot be empty")
	}
	notificationID := n.NotificationID
	if notificationID == uuid.Nil {
		notificationID = uuid7.New()
	}

	query := `
		INSERT INTO notifications (notification_id, type, title, subtitle, description, link, recipient, read, can_delete, action_type, action_payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING notification_id, created_at;
	`
	row := mm.conn().QueryRowContext(ctx, query,
		notificationID, n.Type, n.Title, n.Subtitle, n.Description, n.Link,
		n.Recipient, n.Read, n.CanDelete, n.ActionType, n.ActionPayload)
	errDb := row.Scan(&n.NotificationID, &n.CreatedAt)
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Str("title", n.Title).Msg("failed to insert notification")
		return dberror.ErrDatabase.Err(errDb)
	}

	return nil
}

// GetNotification retrieves a notification by ID.
func (mm *metadataManager) GetNotification(ctx context.Context, notificationID uuid.UUID) (*models.Notification, apperrors.Error) {
	if notificationID == uuid.Nil {
		return nil, dberror.ErrInvalidInput.Msg("notificationID must be provided")
	}

	query := `
		SELECT notification_id, type, title, subtitle, description, link, recipient, read, can_delete, action_type, action_payload, created_at
		FROM notifications
		WHERE notification_id = $1;
	`
	row := mm.conn().QueryRowContext(ctx, query, notificationID)

	var n models.Notification
	errDb := row.Scan(&n.NotificationID, &n.Type, &n.Title, &n.Subtitle, &n.Description, &n.Link,
		&n.Recipient, &n.Read, &n.CanDelete, &n.ActionType, &n.ActionPayload, &n.CreatedAt)
	if errDb != nil {
		if errDb == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("notification not found")
		}
		log.Ctx(ctx).Error().Err(errDb).Str("notification_id", notificationID.String()).Msg("failed to retrieve notification")
		return nil, dberror.ErrDatabase.Err(errDb)
	}

	return &n, nil
}

// ListNotifications retrieves notifications addressed to the given recipient
// or broadcast to everyone (empty recipient), newest first.
func (mm *metadataManager) ListNotifications(ctx context.Context, recipient string) ([]*models.Notification, apperrors.Error) {
	query := `
		SELECT notification_id, type, title, subtitle, description, link, recipient, read, can_delete, action_type, action_payload, created_at
		FROM notifications
		WHERE recipient = $1 OR recipient = ''
		ORDER BY created_at DESC;
	`
	rows, errDb := mm.conn().QueryContext(ctx, query, recipient)
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Str("recipient", recipient).Msg("failed to list notifications")
		return nil, dberror.ErrDatabase.Err(errDb)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		var n models.Notification
		if errDb := rows.Scan(&n.NotificationID, &n.Type, &n.Title, &n.Subtitle, &n.Description, &n.Link,
			&n.Recipient, &n.Read, &n.CanDelete, &n.ActionType, &n.ActionPayload, &n.CreatedAt); errDb != nil {
			log.Ctx(ctx).Error().Err(errDb).Msg("failed to scan notification")
			return nil, dberror.ErrDatabase.Err(errDb)
		}
		notifications = append(notifications, &n)
	}
	if errDb := rows.Err(); errDb != nil {
		return nil, dberror.ErrDatabase.Err(errDb)
	}

	return notifications, nil
}

// CountNotifications returns the total number of stored notifications across
// all recipients.
func (mm *metadataManager) CountNotifications(ctx context.Context) (int, apperrors.Error) {
	query := `
		SELECT COUNT(*)
		FROM notifications;
	`
	var count int
	errDb := mm.conn().QueryRowContext(ctx, query).Scan(&count)
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Msg("failed to count notifications")
		return 0, dberror.ErrDatabase.Err(errDb)
	}

	return count, nil
}

// SetNotificationRead marks a notification as read or unread.
func (mm *metadataManager) SetNotificationRead(ctx context.Context, notificationID uuid.UUID, read bool) apperrors.Error {
	if notificationID == uuid.Nil {
		return dberror.ErrInvalidInput.Msg("notificationID must be provided")
	}

	query := `
		UPDATE notifications
		SET read = $2
		WHERE notification_id = $1;
	`
	result, errDb := mm.conn().ExecContext(ctx, query, notificationID, read)
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Str("notification_id", notificationID.String()).Msg("failed to update notification")
		return dberror.ErrDatabase.Err(errDb)
	}
	rowsAffected, errDb := result.RowsAffected()
	if errDb != nil {
		return dberror.ErrDatabase.Err(errDb)
	}
	if rowsAffected == 0 {
		return dberror.ErrNotFound.Msg("notification not found")
	}

	return nil
}

// DeleteNotification deletes a notification. Notifications flagged as not
// deletable are left in place.
func (mm *metadataManager) DeleteNotification(ctx context.Context, notificationID uuid.UUID) apperrors.Error {
	if notificationID == uuid.Nil {
		return dberror.ErrInvalidInput.Msg("notificationID must be provided")
	}

	query := `
		DELETE FROM notifications
		WHERE notification_id = $1 AND can_delete = true;
	`
	result, errDb := mm.conn().ExecContext(ctx, query, notificationID)
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Str("notification_id", notificationID.String()).Msg("failed to delete notification")
		return dberror.ErrDatabase.Err(errDb)
	}
	rowsAffected, errDb := result.RowsAffected()
	if errDb != nil {
		return dberror.ErrDatabase.Err(errDb)
	}
	if rowsAffected == 0 {
		return dberror.ErrNotFound.Msg("notification not found")
	}

	return nil
}
