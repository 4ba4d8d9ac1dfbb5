package auth

import (
	"net/http"

	"github.com/stewarddata/steward-internal/internal/common/apperrors"
)

var (
	ErrAuthError             apperrors.Error = apperrors.New("error in processing auth request").SetStatusCode(http.StatusInternalServerError)
	ErrAuthDisabled          apperrors.Error = ErrAuthError.New("token authentication is not enabled").SetStatusCode(http.StatusBadRequest)
	ErrInvalidToken          apperrors.Error = ErrAuthError.New("invalid access token").SetStatusCode(http.StatusUnauthorized)
	ErrUnableToGenerateToken apperrors.Error = ErrAuthError.New("unable to generate access token")
)
