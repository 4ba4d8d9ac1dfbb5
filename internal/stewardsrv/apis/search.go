package apis

import (
	"net/http"

	"github.com/stewarddata/steward-internal/internal/common/httpx"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/search"
)

func searchCatalog(r *http.Request) (*httpx.Response, error) {
	results := search.Default().Search(r.Context(), r.URL.Query().Get("q"))
	return &httpx.Response{StatusCode: http.StatusOK, Response: results}, nil
}

func rebuildSearchIndex(r *http.Request) (*httpx.Response, error) {
	search.Default().RebuildAsync()

	rsp := &httpx.Response{
		StatusCode: http.StatusAccepted,
		Response: &messageRsp{
			Message: "Search index rebuild started.",
		},
	}
	return rsp, nil
}
