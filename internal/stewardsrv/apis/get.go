package apis

import (
	"net/http"

	"github.com/stewarddata/steward-internal/internal/common/httpx"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/assetmanager"
	"github.com/stewarddata/steward-internal/pkg/types"
)

func getObject(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	reqContext := getRequestContext(r)

	kind := getResourceKind(r)
	if kind == types.InvalidKind {
		return nil, httpx.ErrInvalidRequest()
	}

	handler, err := assetmanager.KindHandlerForKind(ctx, kind, reqContext)
	if err != nil {
		return nil, err
	}

	rsrc, err := handler.Get(ctx)
	if err != nil {
		return nil, err
	}

	rsp := &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   rsrc,
	}
	return rsp, nil
}
