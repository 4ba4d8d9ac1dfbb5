package apis

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stewarddata/steward-internal/internal/common/httpx"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/assetmanager"
)

func teamSummaries(r *http.Request) (*httpx.Response, error) {
	summaries, err := assetmanager.ListTeamSummaries(r.Context())
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: summaries}, nil
}

func addTeamMember(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	teamID, appErr := teamIDFromRef(ctx, chi.URLParam(r, "teamRef"))
	if appErr != nil {
		return nil, appErr
	}

	if r.Body == nil {
		return nil, httpx.ErrInvalidRequest()
	}
	req, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, httpx.ErrUnableToReadRequest()
	}

	member, appErr := assetmanager.AddTeamMember(ctx, teamID, req)
	if appErr != nil {
		return nil, appErr
	}

	rsp := &httpx.Response{
		StatusCode: http.StatusCreated,
		Response:   member,
	}
	return rsp, nil
}

func updateTeamMember(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	teamID, appErr := teamIDFromRef(ctx, chi.URLParam(r, "teamRef"))
	if appErr != nil {
		return nil, appErr
	}
	identifier := chi.URLParam(r, "memberIdentifier")

	if r.Body == nil {
		return nil, httpx.ErrInvalidRequest()
	}
	req, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, httpx.ErrUnableToReadRequest()
	}

	member, appErr := assetmanager.UpdateTeamMember(ctx, teamID, identifier, req)
	if appErr != nil {
		return nil, appErr
	}

	rsp := &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   member,
	}
	return rsp, nil
}

func removeTeamMember(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	teamID, err := teamIDFromRef(ctx, chi.URLParam(r, "teamRef"))
	if err != nil {
		return nil, err
	}

	if err := assetmanager.RemoveTeamMember(ctx, teamID, chi.URLParam(r, "memberIdentifier")); err != nil {
		return nil, err
	}

	rsp := &httpx.Response{
		StatusCode: http.StatusNoContent,
		Response:   nil,
	}
	return rsp, nil
}
