package apis

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	json "github.com/json-iterator/go"
	"github.com/stewarddata/steward-internal/internal/common/httpx"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/assetmanager"
)

// multipart uploads are buffered in memory up to this many bytes
const uploadMemoryLimit = 10 << 20

// messageRsp is the body of endpoints that acknowledge without returning a
// document.
type messageRsp struct {
	Message string `json:"message"`
}

// uploadErrorRsp reports per-item failures from a bulk upload.
type uploadErrorRsp struct {
	Message string                     `json:"message"`
	Errors  []assetmanager.UploadError `json:"errors"`
}

// uploadProducts accepts a YAML or JSON file holding one product document or
// a list of them, and creates each item independently. Any per-item failure
// turns the response into a 422 carrying every error.
func uploadProducts(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(uploadMemoryLimit); err != nil {
		return nil, httpx.ErrInvalidRequest("expected a multipart form upload")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, httpx.ErrInvalidRequest("missing file field")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, httpx.ErrUnableToReadRequest()
	}

	result, appErr := assetmanager.UploadDataProducts(ctx, header.Filename, content)
	if appErr != nil {
		return nil, appErr
	}

	if len(result.Errors) > 0 {
		return &httpx.Response{
			StatusCode: http.StatusUnprocessableEntity,
			Response: &uploadErrorRsp{
				Message: "Validation errors occurred during upload.",
				Errors:  result.Errors,
			},
		}, nil
	}

	created := result.Created
	if created == nil {
		created = []json.RawMessage{}
	}
	return &httpx.Response{
		StatusCode: http.StatusCreated,
		Response:   created,
	}, nil
}

func createGenieSpace(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	req := &assetmanager.GenieSpaceRequest{}
	if err := httpx.GetRequestData(r, req); err != nil {
		return nil, err
	}

	if err := assetmanager.InitiateGenieSpaceCreation(ctx, req); err != nil {
		return nil, err
	}

	rsp := &httpx.Response{
		StatusCode: http.StatusAccepted,
		Response: &messageRsp{
			Message: "Genie Space creation process initiated. You will be notified upon completion.",
		},
	}
	return rsp, nil
}

func productStatuses(r *http.Request) (*httpx.Response, error) {
	statuses, err := assetmanager.ListProductStatuses(r.Context())
	if err != nil {
		return nil, err
	}
	if statuses == nil {
		statuses = []string{}
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: statuses}, nil
}

func productArchetypes(r *http.Request) (*httpx.Response, error) {
	archetypes, err := assetmanager.ListProductArchetypes(r.Context())
	if err != nil {
		return nil, err
	}
	if archetypes == nil {
		archetypes = []string{}
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: archetypes}, nil
}

func productOwners(r *http.Request) (*httpx.Response, error) {
	owners, err := assetmanager.ListProductOwners(r.Context())
	if err != nil {
		return nil, err
	}
	if owners == nil {
		owners = []string{}
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: owners}, nil
}

func listProductRevisions(r *http.Request) (*httpx.Response, error) {
	revisions, err := assetmanager.ListProductRevisions(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: revisions}, nil
}

func getProductRevision(r *http.Request) (*httpx.Response, error) {
	sequence, err := strconv.Atoi(chi.URLParam(r, "sequence"))
	if err != nil || sequence < 1 {
		return nil, httpx.ErrInvalidRequest("invalid revision sequence")
	}

	revision, appErr := assetmanager.GetProductRevision(r.Context(), chi.URLParam(r, "productId"), sequence)
	if appErr != nil {
		return nil, appErr
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: revision}, nil
}
