// Package notify persists user notifications and pushes them to connected
// websocket clients. Notifications with an empty recipient are broadcast;
// all others are visible only to the addressed identity.
package notify

import (
	"context"
	"errors"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	json "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	schemaerr "github.com/stewarddata/steward-internal/internal/stewardsrv/assetmanager/schema/errors"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/assetmanager/schema/schemavalidator"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/dberror"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/models"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/stewcommon"
	"github.com/stewarddata/steward-internal/internal/common/apperrors"
	"github.com/stewarddata/steward-internal/pkg/types"
)

// notificationSchema is the wire form of a notification.
type notificationSchema struct {
	ID            uuid.UUID              `json:"id"`
	Type          types.NotificationType `json:"type" validate:"required,notificationTypeValidator"`
	Title         string                 `json:"title" validate:"required"`
	Subtitle      string                 `json:"subtitle,omitempty"`
	Description   string                 `json:"description,omitempty"`
	Link          string                 `json:"link,omitempty"`
	Recipient     string                 `json:"recipient,omitempty"`
	Read          bool                   `json:"read"`
	CanDelete     *bool                  `json:"can_delete,omitempty"`
	ActionType    string                 `json:"action_type,omitempty"`
	ActionPayload map[string]any         `json:"action_payload,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

func (ns *notificationSchema) Validate() schemaerr.ValidationErrors {
	var validationErrors schemaerr.ValidationErrors

	err := schemavalidator.V().Struct(ns)
	if err == nil {
		return validationErrors
	}

	validatorErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return append(validationErrors, schemaerr.ErrInvalidSchema)
	}

	value := reflect.ValueOf(ns).Elem()
	typeOfSchema := value.Type()

	for _, e := range validatorErrors {
		jsonFieldName := schemavalidator.GetJSONFieldPath(value, typeOfSchema, e.StructField())

		switch e.Tag() {
		case "required":
			validationErrors = append(validationErrors, schemaerr.ErrMissingRequiredAttribute(jsonFieldName))
		case "notificationTypeValidator":
			val, _ := e.Value().(string)
			validationErrors = append(validationErrors, schemaerr.ErrInvalidValue(jsonFieldName, val))
		default:
			validationErrors = append(validationErrors, schemaerr.ErrValidationFailed(jsonFieldName))
		}
	}

	return validationErrors
}

func (ns *notificationSchema) toModel() *models.Notification {
	canDelete := true
	if ns.CanDelete != nil {
		canDelete = *ns.CanDelete
	}
	n := &models.Notification{
		NotificationID: ns.ID,
		Type:           ns.Type,
		Title:          ns.Title,
		Subtitle:       ns.Subtitle,
		Description:    ns.Description,
		Link:           ns.Link,
		Recipient:      ns.Recipient,
		Read:           ns.Read,
		CanDelete:      canDelete,
		ActionType:     ns.ActionType,
		CreatedAt:      ns.CreatedAt,
	}
	n.ActionPayload = pgtype.JSONB{Status: pgtype.Null}
	if ns.ActionPayload != nil {
		if err := n.ActionPayload.Set(ns.ActionPayload); err != nil {
			n.ActionPayload = pgtype.JSONB{Status: pgtype.Null}
		}
	}
	return n
}

func notificationDocument(n *models.Notification) *notificationSchema {
	canDelete := n.CanDelete
	ns := &notificationSchema{
		ID:          n.NotificationID,
		Type:        n.Type,
		Title:       n.Title,
		Subtitle:    n.Subtitle,
		Description: n.Description,
		Link:        n.Link,
		Recipient:   n.Recipient,
		Read:        n.Read,
		CanDelete:   &canDelete,
		ActionType:  n.ActionType,
		CreatedAt:   n.CreatedAt,
	}
	if n.ActionPayload.Status == pgtype.Present && len(n.ActionPayload.Bytes) > 0 && string(n.ActionPayload.Bytes) != "null" {
		_ = json.Unmarshal(n.ActionPayload.Bytes, &ns.ActionPayload)
	}
	return ns
}

// RecipientFor returns the notification identity of the caller. Email is the
// preferred key since notifications created by background flows address
// users by email.
func RecipientFor(ctx context.Context) string {
	u := stewcommon.UserContextFromContext(ctx)
	if u != nil && u.Email != "" {
		return u.Email
	}
	return u.DisplayName()
}

// Notify persists a notification and pushes it to connected stream clients.
// The notification ID and creation time are assigned by the store when unset.
func Notify(ctx context.Context, n *models.Notification) apperrors.Error {
	if n.Type == "" {
		n.Type = types.NotificationInfo
	}
	if n.ActionPayload.Status == pgtype.Undefined {
		n.ActionPayload = pgtype.JSONB{Status: pgtype.Null}
	}
	if err := db.DB(ctx).CreateNotification(ctx, n); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("title", n.Title).Msg("failed to create notification")
		return err
	}
	Streams().Broadcast(ctx, n)
	return nil
}

// CreateFromJson validates a notification document and persists it, returning
// the stored form.
func CreateFromJson(ctx context.Context, resourceJSON []byte) ([]byte, apperrors.Error) {
	schema := &notificationSchema{}
	if err := json.Unmarshal(resourceJSON, schema); err != nil {
		return nil, ErrInvalidNotification.Err(err)
	}
	if validationErrors := schema.Validate(); validationErrors != nil {
		return nil, ErrInvalidNotification.Err(validationErrors)
	}

	n := schema.toModel()
	if err := Notify(ctx, n); err != nil {
		return nil, err
	}

	doc, err := json.Marshal(notificationDocument(n))
	if err != nil {
		return nil, ErrNotifyError.Err(err)
	}
	return doc, nil
}

// List returns the caller's notifications, broadcasts included, newest first.
func List(ctx context.Context) ([]byte, apperrors.Error) {
	notifications, err := db.DB(ctx).ListNotifications(ctx, RecipientFor(ctx))
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to list notifications")
		return nil, err
	}

	docs := make([]*notificationSchema, 0, len(notifications))
	for _, n := range notifications {
		docs = append(docs, notificationDocument(n))
	}
	jsonData, errJson := json.Marshal(docs)
	if errJson != nil {
		return nil, ErrNotifyError.Err(errJson)
	}
	return jsonData, nil
}

// MarkRead flags a notification as read and returns its stored form.
func MarkRead(ctx context.Context, notificationID uuid.UUID) ([]byte, apperrors.Error) {
	if err := db.DB(ctx).SetNotificationRead(ctx, notificationID, true); err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return nil, ErrNotificationNotFound
		}
		log.Ctx(ctx).Error().Err(err).Str("id", notificationID.String()).Msg("failed to mark notification read")
		return nil, err
	}

	n, err := db.DB(ctx).GetNotification(ctx, notificationID)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}

	doc, errJson := json.Marshal(notificationDocument(n))
	if errJson != nil {
		return nil, ErrNotifyError.Err(errJson)
	}
	return doc, nil
}

// Delete removes a notification. Notifications flagged undeletable are
// rejected rather than silently kept.
func Delete(ctx context.Context, notificationID uuid.UUID) apperrors.Error {
	n, err := db.DB(ctx).GetNotification(ctx, notificationID)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return ErrNotificationNotFound
		}
		log.Ctx(ctx).Error().Err(err).Str("id", notificationID.String()).Msg("failed to load notification")
		return err
	}
	if !n.CanDelete {
		return ErrNotDeletable
	}

	if err := db.DB(ctx).DeleteNotification(ctx, notificationID); err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return ErrNotificationNotFound
		}
		log.Ctx(ctx).Error().Err(err).Str("id", notificationID.String()).Msg("failed to delete notification")
		return err
	}
	return nil
}
