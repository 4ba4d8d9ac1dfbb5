package apis

import (
	"net/http"

	"github.com/stewarddata/steward-internal/internal/common/httpx"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/auth"
)

// tokenRequest carries the optional role claim for an issued token.
type tokenRequest struct {
	Role string `json:"role"`
}

func issueToken(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	req := &tokenRequest{}
	if r.Body != nil && r.ContentLength != 0 {
		if err := httpx.GetRequestData(r, req); err != nil {
			return nil, err
		}
	}

	token, appErr := auth.IssueToken(ctx, req.Role)
	if appErr != nil {
		return nil, appErr
	}

	rsp := &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   token,
	}
	return rsp, nil
}
