package compliance

import (
	"net/http"

	"github.com/stewarddata/steward-internal/internal/common/apperrors"
)

var (
	ErrComplianceError     apperrors.Error = apperrors.New("error in processing compliance request").SetStatusCode(http.StatusInternalServerError)
	ErrPolicyNotFound      apperrors.Error = ErrComplianceError.New("compliance policy not found").SetStatusCode(http.StatusNotFound)
	ErrRunNotFound         apperrors.Error = ErrComplianceError.New("compliance run not found").SetStatusCode(http.StatusNotFound)
	ErrPolicyAlreadyExists apperrors.Error = ErrComplianceError.New("compliance policy already exists").SetStatusCode(http.StatusConflict)
	ErrInvalidPolicy       apperrors.Error = ErrComplianceError.New("invalid compliance policy").SetExpandError(true).SetStatusCode(http.StatusUnprocessableEntity)
	ErrInvalidRule         apperrors.Error = ErrComplianceError.New("invalid compliance rule").SetExpandError(true).SetStatusCode(http.StatusUnprocessableEntity)
	ErrInvalidRequest      apperrors.Error = ErrComplianceError.New("invalid request").SetStatusCode(http.StatusBadRequest)
	ErrRunFailed           apperrors.Error = ErrComplianceError.New("compliance run failed").SetExpandError(true)
)
