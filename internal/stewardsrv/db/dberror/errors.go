package dberror

import (
	"net/http"

	"github.com/stewarddata/steward-internal/internal/common/apperrors"
)

var (
	ErrDatabase       apperrors.Error = apperrors.New("db error").SetStatusCode(http.StatusInternalServerError)
	ErrAlreadyExists  apperrors.Error = ErrDatabase.New("already exists").SetStatusCode(http.StatusConflict)
	ErrNotFound       apperrors.Error = ErrDatabase.New("not found").SetStatusCode(http.StatusNotFound)
	ErrInvalidInput   apperrors.Error = ErrDatabase.New("invalid input").SetStatusCode(http.StatusBadRequest)
	ErrInvalidProduct apperrors.Error = ErrDatabase.New("invalid data product").SetStatusCode(http.StatusBadRequest)
	ErrInvalidDomain  apperrors.Error = ErrDatabase.New("invalid data domain").SetStatusCode(http.StatusBadRequest)
	ErrHasChildren    apperrors.Error = ErrDatabase.New("has dependent children").SetStatusCode(http.StatusConflict)
)
