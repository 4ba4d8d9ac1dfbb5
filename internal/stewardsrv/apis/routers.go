package apis

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stewarddata/steward-internal/internal/common/httpx"
)

var resourceObjectHandlers = []httpx.ResponseHandlerParam{
	{
		Method:  http.MethodPost,
		Path:    "/data-products",
		Handler: createObject,
	},
	{
		Method:  http.MethodGet,
		Path:    "/data-products",
		Handler: listObjects,
	},
	{
		Method:  http.MethodGet,
		Path:    "/data-products/statuses",
		Handler: productStatuses,
	},
	{
		Method:  http.MethodGet,
		Path:    "/data-products/archetypes",
		Handler: productArchetypes,
	},
	{
		Method:  http.MethodGet,
		Path:    "/data-products/owners",
		Handler: productOwners,
	},
	{
		Method:  http.MethodPost,
		Path:    "/data-products/upload",
		Handler: uploadProducts,
	},
	{
		Method:  http.MethodPost,
		Path:    "/data-products/genie-space",
		Handler: createGenieSpace,
	},
	{
		Method:  http.MethodGet,
		Path:    "/data-products/{productId}",
		Handler: getObject,
	},
	{
		Method:  http.MethodPut,
		Path:    "/data-products/{productId}",
		Handler: updateObject,
	},
	{
		Method:  http.MethodDelete,
		Path:    "/data-products/{productId}",
		Handler: deleteObject,
	},
	{
		Method:  http.MethodGet,
		Path:    "/data-products/{productId}/revisions",
		Handler: listProductRevisions,
	},
	{
		Method:  http.MethodGet,
		Path:    "/data-products/{productId}/revisions/{sequence}",
		Handler: getProductRevision,
	},
	{
		Method:  http.MethodPost,
		Path:    "/data-domains",
		Handler: createObject,
	},
	{
		Method:  http.MethodGet,
		Path:    "/data-domains",
		Handler: listObjects,
	},
	{
		Method:  http.MethodGet,
		Path:    "/data-domains/{domainRef}",
		Handler: getObject,
	},
	{
		Method:  http.MethodPut,
		Path:    "/data-domains/{domainRef}",
		Handler: updateObject,
	},
	{
		Method:  http.MethodDelete,
		Path:    "/data-domains/{domainRef}",
		Handler: deleteObject,
	},
	{
		Method:  http.MethodPost,
		Path:    "/teams",
		Handler: createObject,
	},
	{
		Method:  http.MethodGet,
		Path:    "/teams",
		Handler: listObjects,
	},
	{
		Method:  http.MethodGet,
		Path:    "/teams/summary",
		Handler: teamSummaries,
	},
	{
		Method:  http.MethodGet,
		Path:    "/teams/{teamRef}",
		Handler: getObject,
	},
	{
		Method:  http.MethodPut,
		Path:    "/teams/{teamRef}",
		Handler: updateObject,
	},
	{
		Method:  http.MethodDelete,
		Path:    "/teams/{teamRef}",
		Handler: deleteObject,
	},
	{
		Method:  http.MethodPost,
		Path:    "/teams/{teamRef}/members",
		Handler: addTeamMember,
	},
	{
		Method:  http.MethodPut,
		Path:    "/teams/{teamRef}/members/{memberIdentifier}",
		Handler: updateTeamMember,
	},
	{
		Method:  http.MethodDelete,
		Path:    "/teams/{teamRef}/members/{memberIdentifier}",
		Handler: removeTeamMember,
	},
	{
		Method:  http.MethodGet,
		Path:    "/notifications",
		Handler: listNotifications,
	},
	{
		Method:  http.MethodPost,
		Path:    "/notifications",
		Handler: createNotification,
	},
	{
		Method:  http.MethodPut,
		Path:    "/notifications/{notificationId}/read",
		Handler: markNotificationRead,
	},
	{
		Method:  http.MethodDelete,
		Path:    "/notifications/{notificationId}",
		Handler: deleteNotification,
	},
	{
		Method:  http.MethodGet,
		Path:    "/compliance/policies",
		Handler: listPolicies,
	},
	{
		Method:  http.MethodPost,
		Path:    "/compliance/policies",
		Handler: createPolicy,
	},
	{
		Method:  http.MethodGet,
		Path:    "/compliance/stats",
		Handler: complianceStats,
	},
	{
		Method:  http.MethodGet,
		Path:    "/compliance/policies/{policyRef}",
		Handler: getPolicy,
	},
	{
		Method:  http.MethodPut,
		Path:    "/compliance/policies/{policyRef}",
		Handler: updatePolicy,
	},
	{
		Method:  http.MethodDelete,
		Path:    "/compliance/policies/{policyRef}",
		Handler: deletePolicy,
	},
	{
		Method:  http.MethodPost,
		Path:    "/compliance/policies/{policyRef}/run",
		Handler: runPolicy,
	},
	{
		Method:  http.MethodGet,
		Path:    "/compliance/policies/{policyRef}/runs",
		Handler: listPolicyRuns,
	},
	{
		Method:  http.MethodGet,
		Path:    "/compliance/runs/{runId}",
		Handler: getComplianceRun,
	},
	{
		Method:  http.MethodGet,
		Path:    "/search",
		Handler: searchCatalog,
	},
	{
		Method:  http.MethodPost,
		Path:    "/search/index/rebuild",
		Handler: rebuildSearchIndex,
	},
	{
		Method:  http.MethodGet,
		Path:    "/catalogs",
		Handler: listCatalogs,
	},
	{
		Method:  http.MethodGet,
		Path:    "/catalogs/health",
		Handler: warehouseHealth,
	},
	{
		Method:  http.MethodGet,
		Path:    "/catalogs/dataset/{datasetPath}",
		Handler: getDataset,
	},
	{
		Method:  http.MethodGet,
		Path:    "/catalogs/{catalogName}/schemas",
		Handler: listCatalogSchemas,
	},
	{
		Method:  http.MethodGet,
		Path:    "/catalogs/{catalogName}/schemas/{schemaName}/tables",
		Handler: listSchemaTables,
	},
	{
		Method:  http.MethodGet,
		Path:    "/catalogs/{catalogName}/schemas/{schemaName}/views",
		Handler: listSchemaViews,
	},
	{
		Method:  http.MethodGet,
		Path:    "/catalogs/{catalogName}/schemas/{schemaName}/functions",
		Handler: listSchemaFunctions,
	},
	{
		Method:  http.MethodGet,
		Path:    "/user/info",
		Handler: userInfo,
	},
	{
		Method:  http.MethodPost,
		Path:    "/auth/token",
		Handler: issueToken,
	},
}

func Router(r chi.Router) {
	for _, handler := range resourceObjectHandlers {
		r.Method(handler.Method, handler.Path, httpx.WrapHttpRsp(handler.Handler))
	}
}
