package assetmanager

import (
	"net/http"

	"github.com/stewarddata/steward-internal/internal/common/apperrors"
)

var (
	ErrAssetError           apperrors.Error = apperrors.New("error in processing asset").SetStatusCode(http.StatusInternalServerError)
	ErrProductNotFound      apperrors.Error = ErrAssetError.New("data product not found").SetStatusCode(http.StatusNotFound)
	ErrDomainNotFound       apperrors.Error = ErrAssetError.New("data domain not found").SetStatusCode(http.StatusNotFound)
	ErrTeamNotFound         apperrors.Error = ErrAssetError.New("team not found").SetStatusCode(http.StatusNotFound)
	ErrObjectNotFound       apperrors.Error = ErrAssetError.New("object not found").SetStatusCode(http.StatusNotFound)
	ErrAlreadyExists        apperrors.Error = ErrAssetError.New("object already exists").SetStatusCode(http.StatusConflict)
	ErrHasChildDomains      apperrors.Error = ErrAssetError.New("domain has child domains").SetStatusCode(http.StatusConflict)
	ErrInvalidSchema        apperrors.Error = ErrAssetError.New("invalid schema").SetExpandError(true).SetStatusCode(http.StatusUnprocessableEntity)
	ErrInvalidRequest       apperrors.Error = ErrAssetError.New("invalid request").SetStatusCode(http.StatusBadRequest)
	ErrIDMismatch           apperrors.Error = ErrAssetError.New("ID in path does not match ID in request body").SetStatusCode(http.StatusBadRequest)
	ErrInvalidUpload        apperrors.Error = ErrAssetError.New("invalid upload").SetExpandError(true).SetStatusCode(http.StatusBadRequest)
	ErrUnableToLoadObject   apperrors.Error = ErrAssetError.New("unable to load object").SetStatusCode(http.StatusInternalServerError)
	ErrUnableToUpdateObject apperrors.Error = ErrAssetError.New("unable to update object").SetExpandError(true).SetStatusCode(http.StatusInternalServerError)
	ErrUnableToDeleteObject apperrors.Error = ErrAssetError.New("unable to delete object").SetStatusCode(http.StatusInternalServerError)
)
