package apis

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/stewarddata/steward-internal/internal/common/httpx"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/compliance"
	"github.com/tidwall/gjson"
)

func listPolicies(r *http.Request) (*httpx.Response, error) {
	policies, err := compliance.ListPolicies(r.Context())
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: policies}, nil
}

func createPolicy(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	if r.Body == nil {
		return nil, httpx.ErrInvalidRequest()
	}
	req, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, httpx.ErrUnableToReadRequest()
	}

	policy, appErr := compliance.CreatePolicy(ctx, req)
	if appErr != nil {
		return nil, appErr
	}

	rsp := &httpx.Response{
		StatusCode: http.StatusCreated,
		Location:   "/compliance/policies/" + gjson.GetBytes(policy, "id").String(),
		Response:   policy,
	}
	return rsp, nil
}

func getPolicy(r *http.Request) (*httpx.Response, error) {
	policy, err := compliance.GetPolicy(r.Context(), chi.URLParam(r, "policyRef"))
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: policy}, nil
}

func updatePolicy(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	if r.Body == nil {
		return nil, httpx.ErrInvalidRequest()
	}
	req, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, httpx.ErrUnableToReadRequest()
	}

	policy, appErr := compliance.UpdatePolicy(ctx, chi.URLParam(r, "policyRef"), req)
	if appErr != nil {
		return nil, appErr
	}

	rsp := &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   policy,
	}
	return rsp, nil
}

func deletePolicy(r *http.Request) (*httpx.Response, error) {
	if err := compliance.DeletePolicy(r.Context(), chi.URLParam(r, "policyRef")); err != nil {
		return nil, err
	}
	rsp := &httpx.Response{
		StatusCode: http.StatusNoContent,
		Response:   nil,
	}
	return rsp, nil
}

func complianceStats(r *http.Request) (*httpx.Response, error) {
	stats, err := compliance.Stats(r.Context())
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: stats}, nil
}

func runPolicy(r *http.Request) (*httpx.Response, error) {
	run, err := compliance.RunPolicy(r.Context(), chi.URLParam(r, "policyRef"))
	if err != nil {
		return nil, err
	}

	rsp := &httpx.Response{
		StatusCode: http.StatusCreated,
		Location:   "/compliance/runs/" + gjson.GetBytes(run, "id").String(),
		Response:   run,
	}
	return rsp, nil
}

func listPolicyRuns(r *http.Request) (*httpx.Response, error) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return nil, httpx.ErrInvalidRequest("invalid limit")
		}
		limit = parsed
	}

	runs, err := compliance.ListPolicyRuns(r.Context(), chi.URLParam(r, "policyRef"), limit)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: runs}, nil
}

func getComplianceRun(r *http.Request) (*httpx.Response, error) {
	runID, err := uuidParam(r, "runId")
	if err != nil {
		return nil, err
	}

	run, appErr := compliance.GetRun(r.Context(), runID)
	if appErr != nil {
		return nil, appErr
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: run}, nil
}
