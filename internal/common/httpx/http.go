package httpx

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/stewarddata/steward-internal/internal/common/apperrors"
)

func GetRequestData(r *http.Request, data any) error {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		return ErrReqMethodNotSupported()
	}
	if r.Body == nil {
		log.Ctx(r.Context()).Error().Msg("Empty request body")
		return ErrUnableToParseReqData()
	}
	if err := json.NewDecoder(r.Body).Decode(data); err != nil {
		return ErrUnableToParseReqData()
	}
	return nil
}

type Response struct {
	StatusCode  int
	Location    string //in case of http.StatusAccepted or http.StatusCreated
	Response    any
	ContentType string
}

type RequestHandler func(r *http.Request) (*Response, error)

func WrapHttpRsp(handler RequestHandler) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rsp, err := handler(r)
		if err != nil {
			if httperror, ok := err.(*Error); ok {
				httperror.Send(w)
			} else if appErr, ok := err.(apperrors.Error); ok {
				statusCode := appErr.StatusCode()
				if statusCode == 0 {
					statusCode = http.StatusInternalServerError
				}
				httperror := &Error{
					StatusCode:  statusCode,
					Description: appErr.ErrorAll(),
				}
				httperror.Send(w)
			} else {
				ErrApplicationError(err.Error()).Send(w)
			}
			return
		}
		if rsp == nil {
			ErrApplicationError().Send(w)
			return
		}
		if rsp.ContentType == "" {
			rsp.ContentType = "application/json"
		}
		var location []string
		if rsp.Location != "" {
			location = append(location, rsp.Location)
		}
		if rsp.ContentType == "application/json" {
			SendJsonRsp(r.Context(), w, rsp.StatusCode, rsp.Response, location...)
		} else {
			ErrApplicationError("unsupported response type").Send(w)
		}
	})
}

func SendJsonRsp(ctx context.Context, w http.ResponseWriter, statusCode int, rsp any, location ...string) {
	w.Header().Set("Content-Type", "application/json")
	if len(location) > 0 {
		w.Header().Set("Location", location[0])
	}
	w.WriteHeader(statusCode)
	if rsp == nil {
		return
	}
	// Byte slices are pre-encoded JSON documents, written as-is.
	switch body := rsp.(type) {
	case []byte:
		if _, err := w.Write(body); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("failed to write response")
		}
	case json.RawMessage:
		if _, err := w.Write(body); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("failed to write response")
		}
	default:
		if err := json.NewEncoder(w).Encode(rsp); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("failed to encode response")
		}
	}
}

type ResponseHandlerParam struct {
	Method  string
	Path    string
	Handler RequestHandler
}
