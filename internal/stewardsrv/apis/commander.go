package apis

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stewarddata/steward-internal/internal/common/httpx"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/commander"
)

func listCatalogs(r *http.Request) (*httpx.Response, error) {
	catalogs, err := commander.Default().ListCatalogs(r.Context())
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: catalogs}, nil
}

func listCatalogSchemas(r *http.Request) (*httpx.Response, error) {
	schemas, err := commander.Default().ListSchemas(r.Context(), chi.URLParam(r, "catalogName"))
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: schemas}, nil
}

func listSchemaTables(r *http.Request) (*httpx.Response, error) {
	tables, err := commander.Default().ListTables(r.Context(), chi.URLParam(r, "catalogName"), chi.URLParam(r, "schemaName"))
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: tables}, nil
}

func listSchemaViews(r *http.Request) (*httpx.Response, error) {
	views, err := commander.Default().ListViews(r.Context(), chi.URLParam(r, "catalogName"), chi.URLParam(r, "schemaName"))
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: views}, nil
}

func listSchemaFunctions(r *http.Request) (*httpx.Response, error) {
	functions, err := commander.Default().ListFunctions(r.Context(), chi.URLParam(r, "catalogName"), chi.URLParam(r, "schemaName"))
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: functions}, nil
}

func getDataset(r *http.Request) (*httpx.Response, error) {
	dataset, err := commander.Default().GetDataset(r.Context(), chi.URLParam(r, "datasetPath"))
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: dataset}, nil
}

func warehouseHealth(r *http.Request) (*httpx.Response, error) {
	if err := commander.Default().Health(r.Context()); err != nil {
		return nil, err
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   map[string]string{"status": "healthy"},
	}, nil
}
