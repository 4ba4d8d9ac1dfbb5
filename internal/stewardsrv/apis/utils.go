package apis

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stewarddata/steward-internal/internal/common/apperrors"
	"github.com/stewarddata/steward-internal/internal/common/httpx"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/assetmanager"
	"github.com/stewarddata/steward-internal/pkg/types"
)

// getRequestContext hydrates a RequestContext from the request path. Product
// identifiers are caller-supplied strings; domains and teams are addressed by
// uuid or by name.
func getRequestContext(r *http.Request) assetmanager.RequestContext {
	reqContext := assetmanager.RequestContext{}

	if productID := chi.URLParam(r, "productId"); productID != "" {
		reqContext.ProductID = productID
	}
	if ref := chi.URLParam(r, "domainRef"); ref != "" {
		reqContext.ObjectName, reqContext.ObjectID = getUUIDOrName(ref)
	}
	if ref := chi.URLParam(r, "teamRef"); ref != "" {
		reqContext.ObjectName, reqContext.ObjectID = getUUIDOrName(ref)
	}

	reqContext.QueryParams = r.URL.Query()
	return reqContext
}

func getResourceKind(r *http.Request) string {
	return types.KindFromResourceName(getResourceNameFromPath(r))
}

// getResourceNameFromPath returns the path segment naming the resource
// collection, skipping the api mount prefix.
func getResourceNameFromPath(r *http.Request) string {
	path := strings.Trim(r.URL.Path, "/")
	segments := strings.Split(path, "/")
	if len(segments) > 0 && segments[0] == "api" {
		segments = segments[1:]
	}
	var resourceName string
	if len(segments) > 0 {
		resourceName = segments[0]
	}
	return resourceName
}

func getUUIDOrName(ref string) (string, uuid.UUID) {
	if ref == "" {
		return "", uuid.Nil
	}
	u, err := uuid.Parse(ref)
	if err != nil {
		return ref, uuid.Nil
	}
	return "", u
}

// teamIDFromRef resolves a team path reference, uuid or name, to the team's
// uuid. Member operations key on the uuid.
func teamIDFromRef(ctx context.Context, ref string) (uuid.UUID, apperrors.Error) {
	name, id := getUUIDOrName(ref)
	if id != uuid.Nil {
		return id, nil
	}
	team, err := assetmanager.LoadTeamManager(ctx, uuid.Nil, name)
	if err != nil {
		return uuid.Nil, err
	}
	return team.ID(), nil
}

// uuidParam parses a path parameter that must be a uuid.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, httpx.ErrInvalidRequest("invalid " + name)
	}
	return id, nil
}
