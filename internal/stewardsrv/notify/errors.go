package notify

import (
	"net/http"

	"github.com/stewarddata/steward-internal/internal/common/apperrors"
)

var (
	ErrNotifyError          apperrors.Error = apperrors.New("error in processing notification").SetStatusCode(http.StatusInternalServerError)
	ErrNotificationNotFound apperrors.Error = ErrNotifyError.New("notification not found").SetStatusCode(http.StatusNotFound)
	ErrNotDeletable         apperrors.Error = ErrNotifyError.New("notification cannot be deleted").SetStatusCode(http.StatusForbidden)
	ErrInvalidNotification  apperrors.Error = ErrNotifyError.New("invalid notification").SetExpandError(true).SetStatusCode(http.StatusUnprocessableEntity)
)
