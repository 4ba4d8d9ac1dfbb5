package types

import (
	"slices"
)

// SpecVersion is the data product specification version accepted by this server.
const SpecVersion = "0.0.1"

const (
	DataProductKind      = "DataProduct"
	DataDomainKind       = "DataDomain"
	TeamKind             = "Team"
	CompliancePolicyKind = "CompliancePolicy"
	NotificationKind     = "Notification"
	InvalidKind          = "InvalidKind"
)

const (
	ResourceNameDataProducts       = "data-products"
	ResourceNameDataDomains        = "data-domains"
	ResourceNameTeams              = "teams"
	ResourceNameCompliancePolicies = "compliance-policies"
	ResourceNameNotifications      = "notifications"
)

func KindFromResourceName(uri string) string {
	switch uri {
	case ResourceNameDataProducts:
		return DataProductKind
	case ResourceNameDataDomains:
		return DataDomainKind
	case ResourceNameTeams:
		return TeamKind
	case ResourceNameCompliancePolicies:
		return CompliancePolicyKind
	case ResourceNameNotifications:
		return NotificationKind
	default:
		return InvalidKind
	}
}

// ProductStatus is the lifecycle status of a data product or one of its ports.
type ProductStatus string

const (
	StatusDraft         ProductStatus = "draft"
	StatusCandidate     ProductStatus = "candidate"
	StatusInDevelopment ProductStatus = "in-development"
	StatusActive        ProductStatus = "active"
	StatusDeprecated    ProductStatus = "deprecated"
	StatusArchived      ProductStatus = "archived"
	StatusRetired       ProductStatus = "retired"
	StatusDeleted       ProductStatus = "deleted"
)

func ProductStatuses() []ProductStatus {
	return []ProductStatus{
		StatusDraft,
		StatusCandidate,
		StatusInDevelopment,
		StatusActive,
		StatusDeprecated,
		StatusArchived,
		StatusRetired,
		StatusDeleted,
	}
}

func (s ProductStatus) IsValid() bool {
	return slices.Contains(ProductStatuses(), s)
}

// PortType classifies a data product by how it relates to its sources.
type PortType string

const (
	PortTypeSourceAligned   PortType = "source-aligned"
	PortTypeAggregate       PortType = "aggregate"
	PortTypeConsumerAligned PortType = "consumer-aligned"
)

// AssetType identifies the physical asset a port references.
type AssetType string

const (
	AssetTypeTable            AssetType = "table"
	AssetTypeView             AssetType = "view"
	AssetTypeStreamingTable   AssetType = "streaming_table"
	AssetTypeMaterializedView AssetType = "materialized_view"
	AssetTypeExternalTable    AssetType = "external_table"
	AssetTypeFunction         AssetType = "function"
	AssetTypeModel            AssetType = "model"
	AssetTypeDashboard        AssetType = "dashboard"
	AssetTypeJob              AssetType = "job"
	AssetTypeNotebook         AssetType = "notebook"
)

func AssetTypes() []AssetType {
	return []AssetType{
		AssetTypeTable,
		AssetTypeView,
		AssetTypeStreamingTable,
		AssetTypeMaterializedView,
		AssetTypeExternalTable,
		AssetTypeFunction,
		AssetTypeModel,
		AssetTypeDashboard,
		AssetTypeJob,
		AssetTypeNotebook,
	}
}

func (a AssetType) IsValid() bool {
	return slices.Contains(AssetTypes(), a)
}

// NotificationType is the severity class of a notification.
type NotificationType string

const (
	NotificationInfo           NotificationType = "info"
	NotificationSuccess        NotificationType = "success"
	NotificationWarning        NotificationType = "warning"
	NotificationError          NotificationType = "error"
	NotificationActionRequired NotificationType = "action_required"
)

func (n NotificationType) IsValid() bool {
	switch n {
	case NotificationInfo, NotificationSuccess, NotificationWarning, NotificationError, NotificationActionRequired:
		return true
	}
	return false
}

// MemberType distinguishes individual users from groups in team rosters.
type MemberType string

const (
	MemberTypeUser  MemberType = "user"
	MemberTypeGroup MemberType = "group"
)

func (m MemberType) IsValid() bool {
	return m == MemberTypeUser || m == MemberTypeGroup
}

// PolicySeverity grades a compliance policy.
type PolicySeverity string

const (
	SeverityLow      PolicySeverity = "low"
	SeverityMedium   PolicySeverity = "medium"
	SeverityHigh     PolicySeverity = "high"
	SeverityCritical PolicySeverity = "critical"
)

func (s PolicySeverity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// LogicalType is the vendor-neutral column type reported for dataset schemas.
type LogicalType string

const (
	LogicalTypeArray   LogicalType = "array"
	LogicalTypeObject  LogicalType = "object"
	LogicalTypeBoolean LogicalType = "boolean"
	LogicalTypeDate    LogicalType = "date"
	LogicalTypeNumber  LogicalType = "number"
	LogicalTypeInteger LogicalType = "integer"
	LogicalTypeString  LogicalType = "string"
)

// TokenType distinguishes the audiences of issued access tokens.
type TokenType string

const (
	TokenTypeIdentity TokenType = "identity"
	TokenTypeService  TokenType = "service"
	TokenTypeUnknown  TokenType = "unknown"
)

var validResourceNameAndMethod = map[string][]string{
	ResourceNameDataProducts:       {"POST", "GET", "PUT", "DELETE"},
	ResourceNameDataDomains:        {"POST", "GET", "PUT", "DELETE"},
	ResourceNameTeams:              {"POST", "GET", "PUT", "DELETE"},
	ResourceNameCompliancePolicies: {"POST", "GET", "PUT", "DELETE"},
	ResourceNameNotifications:      {"POST", "GET", "PUT", "DELETE"},
}

func IsValidResourceNameAndMethod(r string, m string) bool {
	if methods, ok := validResourceNameAndMethod[r]; ok {
		if slices.Contains(methods, m) {
			return true
		}
	}
	return false
}

var TestContextKey = struct{}{}
