package apis

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stewarddata/steward-internal/internal/common/httpx"
	"github.com/stewarddata/steward-internal/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUUIDOrName(t *testing.T) {
	name, id := getUUIDOrName("")
	assert.Empty(t, name)
	assert.Equal(t, uuid.Nil, id)

	name, id = getUUIDOrName("finance")
	assert.Equal(t, "finance", name)
	assert.Equal(t, uuid.Nil, id)

	ref := uuid.New()
	name, id = getUUIDOrName(ref.String())
	assert.Empty(t, name)
	assert.Equal(t, ref, id)
}

func TestGetResourceNameFromPath(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/api/data-products/search-queries-all", "data-products"},
		{"/api/teams", "teams"},
		{"/api/notifications/", "notifications"},
		{"/data-domains/finance", "data-domains"},
		{"/api", ""},
		{"/", ""},
	}

	for _, test := range tests {
		r := httptest.NewRequest("GET", "http://localhost"+test.path, nil)
		assert.Equal(t, test.expected, getResourceNameFromPath(r), "path %q", test.path)
	}
}

func TestGetResourceKind(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/api/data-products/search-queries-all", types.DataProductKind},
		{"/api/data-domains", types.DataDomainKind},
		{"/api/teams/core", types.TeamKind},
		{"/api/notifications", types.NotificationKind},
		{"/api/catalogs", types.InvalidKind},
	}

	for _, test := range tests {
		r := httptest.NewRequest("GET", "http://localhost"+test.path, nil)
		assert.Equal(t, test.expected, getResourceKind(r), "path %q", test.path)
	}
}

func TestGetRequestContext(t *testing.T) {
	t.Run("product id", func(t *testing.T) {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("productId", "search-queries-all")
		r := httptest.NewRequest("GET", "http://localhost/api/data-products/search-queries-all?include=ports", nil)
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

		rc := getRequestContext(r)
		assert.Equal(t, "search-queries-all", rc.ProductID)
		assert.Equal(t, "ports", rc.QueryParams.Get("include"))
	})

	t.Run("domain by name", func(t *testing.T) {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("domainRef", "finance")
		r := httptest.NewRequest("GET", "http://localhost/api/data-domains/finance", nil)
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

		rc := getRequestContext(r)
		assert.Equal(t, "finance", rc.ObjectName)
		assert.Equal(t, uuid.Nil, rc.ObjectID)
	})

	t.Run("team by uuid", func(t *testing.T) {
		id := uuid.New()
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("teamRef", id.String())
		r := httptest.NewRequest("GET", "http://localhost/api/teams/"+id.String(), nil)
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

		rc := getRequestContext(r)
		assert.Empty(t, rc.ObjectName)
		assert.Equal(t, id, rc.ObjectID)
	})
}

func TestUUIDParam(t *testing.T) {
	id := uuid.New()
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("notificationId", id.String())
	r := httptest.NewRequest("GET", "http://localhost/api/notifications/"+id.String(), nil)
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

	got, err := uuidParam(r, "notificationId")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	rctx = chi.NewRouteContext()
	rctx.URLParams.Add("notificationId", "not-a-uuid")
	r = httptest.NewRequest("GET", "http://localhost/api/notifications/not-a-uuid", nil)
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

	_, err = uuidParam(r, "notificationId")
	require.Error(t, err)
	herr, ok := err.(*httpx.Error)
	require.True(t, ok)
	assert.Equal(t, 400, herr.StatusCode)
	assert.Contains(t, herr.Description, "notificationId")
}
