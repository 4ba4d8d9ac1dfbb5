package apis

import (
	"net/http"

	"github.com/stewarddata/steward-internal/internal/common/httpx"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/stewcommon"
)

// userInfoRsp echoes the identity the proxy forwarded for the caller.
type userInfoRsp struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	User     string `json:"user"`
	IP       string `json:"ip"`
}

func userInfo(r *http.Request) (*httpx.Response, error) {
	rsp := &userInfoRsp{
		IP: r.Header.Get("X-Real-Ip"),
	}
	if user := stewcommon.UserContextFromContext(r.Context()); user != nil {
		rsp.Email = user.Email
		rsp.Username = user.Username
		rsp.User = user.User
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: rsp}, nil
}
