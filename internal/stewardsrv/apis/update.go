package apis

import (
	"io"
	"net/http"

	"github.com/stewarddata/steward-internal/internal/common/httpx"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/assetmanager"
	"github.com/stewarddata/steward-internal/pkg/types"
)

// Update an existing resource object and return its new form
func updateObject(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	reqContext := getRequestContext(r)

	kind := getResourceKind(r)
	if kind == types.InvalidKind {
		return nil, httpx.ErrInvalidRequest()
	}

	if r.Body == nil {
		return nil, httpx.ErrInvalidRequest()
	}
	req, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, httpx.ErrUnableToReadRequest()
	}
	if err := assetmanager.ValidateRequest(req, kind); err != nil {
		return nil, err
	}

	handler, appErr := assetmanager.KindHandlerForKind(ctx, kind, reqContext)
	if appErr != nil {
		return nil, appErr
	}

	if appErr := handler.Update(ctx, req); appErr != nil {
		return nil, appErr
	}

	rsrc, appErr := handler.Get(ctx)
	if appErr != nil {
		return nil, appErr
	}

	rsp := &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   rsrc,
	}
	return rsp, nil
}
