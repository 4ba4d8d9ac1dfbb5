package apis

import (
	"io"
	"net/http"

	"github.com/stewarddata/steward-internal/internal/common/httpx"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/assetmanager"
	"github.com/stewarddata/steward-internal/pkg/types"
)

// Create a new resource object
func createObject(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	if r.Body == nil {
		return nil, httpx.ErrInvalidRequest()
	}

	req, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, httpx.ErrUnableToReadRequest()
	}

	reqContext := getRequestContext(r)

	kind := getResourceKind(r)
	if kind == types.InvalidKind {
		return nil, httpx.ErrInvalidRequest()
	}

	if err := assetmanager.ValidateRequest(req, kind); err != nil {
		return nil, err
	}

	handler, appErr := assetmanager.KindHandlerForKind(ctx, kind, reqContext)
	if appErr != nil {
		return nil, appErr
	}

	resourceLoc, appErr := handler.Create(ctx, req)
	if appErr != nil {
		return nil, appErr
	}

	rsrc, appErr := handler.Get(ctx)
	if appErr != nil {
		return nil, appErr
	}

	rsp := &httpx.Response{
		StatusCode: http.StatusCreated,
		Location:   resourceLoc,
		Response:   rsrc,
	}

	return rsp, nil
}
