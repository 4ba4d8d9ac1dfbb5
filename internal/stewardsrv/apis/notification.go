package apis

import (
	"io"
	"net/http"

	"github.com/stewarddata/steward-internal/internal/common/httpx"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/notify"
)

func listNotifications(r *http.Request) (*httpx.Response, error) {
	notifications, err := notify.List(r.Context())
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: notifications}, nil
}

func createNotification(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	if r.Body == nil {
		return nil, httpx.ErrInvalidRequest()
	}
	req, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, httpx.ErrUnableToReadRequest()
	}

	notification, appErr := notify.CreateFromJson(ctx, req)
	if appErr != nil {
		return nil, appErr
	}

	rsp := &httpx.Response{
		StatusCode: http.StatusCreated,
		Response:   notification,
	}
	return rsp, nil
}

func markNotificationRead(r *http.Request) (*httpx.Response, error) {
	notificationID, err := uuidParam(r, "notificationId")
	if err != nil {
		return nil, err
	}

	notification, appErr := notify.MarkRead(r.Context(), notificationID)
	if appErr != nil {
		return nil, appErr
	}

	rsp := &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   notification,
	}
	return rsp, nil
}

func deleteNotification(r *http.Request) (*httpx.Response, error) {
	notificationID, err := uuidParam(r, "notificationId")
	if err != nil {
		return nil, err
	}

	if err := notify.Delete(r.Context(), notificationID); err != nil {
		return nil, err
	}

	rsp := &httpx.Response{
		StatusCode: http.StatusNoContent,
		Response:   nil,
	}
	return rsp, nil
}
