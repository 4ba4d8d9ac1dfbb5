package commander

import (
	"net/http"

	"github.com/stewarddata/steward-internal/internal/common/apperrors"
)

var (
	ErrCommanderError       apperrors.Error = apperrors.New("error in processing catalog request").SetStatusCode(http.StatusBadGateway)
	ErrWarehouseUnavailable apperrors.Error = ErrCommanderError.New("warehouse is unreachable").SetExpandError(true)
	ErrInvalidDatasetPath   apperrors.Error = ErrCommanderError.New("invalid dataset path").SetStatusCode(http.StatusBadRequest)
	ErrDatasetReadFailed    apperrors.Error = ErrCommanderError.New("failed to read dataset").SetExpandError(true)
)
