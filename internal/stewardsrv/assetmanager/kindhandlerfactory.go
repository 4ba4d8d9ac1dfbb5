package assetmanager

import (
	"context"
	"net/url"

	"github.com/google/uuid"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/assetmanager/schemamanager"
	"github.com/stewarddata/steward-internal/internal/common/apperrors"
	"github.com/stewarddata/steward-internal/pkg/types"
	"github.com/tidwall/gjson"
)

// RequestContext carries the identifiers a handler resolved from the
// request path. ProductID holds the document-supplied product identifier;
// ObjectID and ObjectName address server-minted entities by uuid or name.
type RequestContext struct {
	ProductID   string
	ObjectID    uuid.UUID
	ObjectName  string
	QueryParams url.Values
}

// ValidateRequest checks a request body is a JSON object of the expected
// kind. Product documents declaring a specification version must declare
// the one this server implements.
func ValidateRequest(resourceJSON []byte, kind string) apperrors.Error {
	if !gjson.ValidBytes(resourceJSON) {
		return ErrInvalidRequest.Msg("unable to parse request")
	}
	if !gjson.ParseBytes(resourceJSON).IsObject() {
		return ErrInvalidRequest.Msg("request body must be a JSON object")
	}
	if kind == types.DataProductKind {
		result := gjson.GetBytes(resourceJSON, "dataProductSpecification")
		if result.Exists() && result.String() != types.SpecVersion {
			return ErrInvalidRequest.Msg("unsupported data product specification version")
		}
	}
	return nil
}

type KindHandlerFactory func(context.Context, RequestContext) (schemamanager.KindHandler, apperrors.Error)

var kindHandlerFactories = map[string]KindHandlerFactory{
	types.DataProductKind: NewDataProductHandler,
	types.DataDomainKind:  NewDataDomainHandler,
	types.TeamKind:        NewTeamHandler,
}

func KindHandlerForKind(ctx context.Context, kind string, reqContext RequestContext) (schemamanager.KindHandler, apperrors.Error) {
	factory, ok := kindHandlerFactories[kind]
	if !ok {
		return nil, ErrInvalidRequest.Msg("unsupported resource kind: " + kind)
	}
	return factory(ctx, reqContext)
}
