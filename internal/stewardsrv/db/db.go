package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/stewarddata/steward-internal/internal/common/apperrors"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/dbmanager"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/models"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/postgresql"
)

// DB_ is an interface for the database connection. It wraps the underlying sql.Conn.
// The three interfaces are separately initialized to allow for wrapping each
// interface separately. This is particularly useful for caching. RevisionManager
// is a prime candidate for caching.

type MetadataManager interface {
	// Data Product
	CreateDataProduct(ctx context.Context, product *models.DataProduct) apperrors.Error
	GetDataProduct(ctx context.Context, id string) (*models.DataProduct, apperrors.Error)
	ListDataProducts(ctx context.Context) ([]*models.DataProduct, apperrors.Error)
	UpdateDataProduct(ctx context.Context, product *models.DataProduct) apperrors.Error
	DeleteDataProduct(ctx context.Context, id string) apperrors.Error
	ListDataProductOwners(ctx context.Context) ([]string, apperrors.Error)
	ListDataProductStatuses(ctx context.Context) ([]string, apperrors.Error)
	ListDataProductArchetypes(ctx context.Context) ([]string, apperrors.Error)

	// Data Domain
	CreateDataDomain(ctx context.Context, domain *models.DataDomain) apperrors.Error
	GetDataDomain(ctx context.Context, domainID uuid.UUID, name string) (*models.DataDomain, apperrors.Error)
	ListDataDomains(ctx context.Context) ([]*models.DataDomain, apperrors.Error)
	ListChildDomains(ctx context.Context, parentID uuid.UUID) ([]*models.DataDomain, apperrors.Error)
	UpdateDataDomain(ctx context.Context, domain *models.DataDomain) apperrors.Error
	DeleteDataDomain(ctx context.Context, domainID uuid.UUID) apperrors.Error

	// Team
	CreateTeam(ctx context.Context, team *models.Team) apperrors.Error
	GetTeam(ctx context.Context, teamID uuid.UUID, name string) (*models.Team, apperrors.Error)
	ListTeams(ctx context.Context) ([]*models.Team, apperrors.Error)
	UpdateTeam(ctx context.Context, team *models.Team) apperrors.Error
	DeleteTeam(ctx context.Context, teamID uuid.UUID) apperrors.Error

	// Notification
	CreateNotification(ctx context.Context, n *models.Notification) apperrors.Error
	GetNotification(ctx context.Context, notificationID uuid.UUID) (*models.Notification, apperrors.Error)
	ListNotifications(ctx context.Context, recipient string) ([]*models.Notification, apperrors.Error)
	CountNotifications(ctx context.Context) (int, apperrors.Error)
	SetNotificationRead(ctx context.Context, notificationID uuid.UUID, read bool) apperrors.Error
	DeleteNotification(ctx context.Context, notificationID uuid.UUID) apperrors.Error

	// Compliance
	CreateCompliancePolicy(ctx context.Context, policy *models.CompliancePolicy) apperrors.Error
	GetCompliancePolicy(ctx context.Context, policyID uuid.UUID, slug string) (*models.CompliancePolicy, apperrors.Error)
	ListCompliancePolicies(ctx context.Context, activeOnly bool) ([]*models.CompliancePolicy, apperrors.Error)
	UpdateCompliancePolicy(ctx context.Context, policy *models.CompliancePolicy) apperrors.Error
	UpdatePolicyCompliance(ctx context.Context, policyID uuid.UUID, compliance float64) apperrors.Error
	DeleteCompliancePolicy(ctx context.Context, policyID uuid.UUID) apperrors.Error
	CreateComplianceRun(ctx context.Context, run *models.ComplianceRun) apperrors.Error
	UpdateComplianceRun(ctx context.Context, run *models.ComplianceRun) apperrors.Error
	GetComplianceRun(ctx context.Context, runID uuid.UUID) (*models.ComplianceRun, apperrors.Error)
	ListComplianceRuns(ctx context.Context, policyID uuid.UUID, limit int) ([]*models.ComplianceRun, apperrors.Error)

	// SigningKey
	CreateSigningKey(ctx context.Context, key *models.SigningKey) apperrors.Error
	GetSigningKey(ctx context.Context, keyID uuid.UUID) (*models.SigningKey, apperrors.Error)
	GetActiveSigningKey(ctx context.Context) (*models.SigningKey, apperrors.Error)
	UpdateSigningKeyActive(ctx context.Context, keyID uuid.UUID, isActive bool) apperrors.Error
	DeleteSigningKey(ctx context.Context, keyID uuid.UUID) apperrors.Error
}

type RevisionManager interface {
	CreateRevision(ctx context.Context, rev *models.ProductRevision) apperrors.Error
	GetRevision(ctx context.Context, productID string, sequence int) (*models.ProductRevision, apperrors.Error)
	ListRevisions(ctx context.Context, productID string) ([]*models.ProductRevision, apperrors.Error)
	DeleteRevisions(ctx context.Context, productID string) apperrors.Error
}

type ConnectionManager interface {
	// Close the connection to the database.
	Close(ctx context.Context)
}

type DB_ interface {
	MetadataManager
	RevisionManager
	ConnectionManager
}

var pool dbmanager.PooledDb

func init() {
	ctx := log.Logger.WithContext(context.Background())
	pg, err := dbmanager.NewPooledDb(ctx, "postgresql")
	if err != nil {
		panic("unable to create db pool: " + err.Error())
	}
	pool = pg
}

func Conn(ctx context.Context) (dbmanager.PooledConn, error) {
	conn, err := pool.Conn(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("unable to get db connection")
		return nil, err
	}
	return conn, nil
}

type ctxDbKeyType string

const ctxDbKey ctxDbKeyType = "StewardCatalogDb"

// ConnCtx attaches a pooled db connection to the context. The caller owns the
// connection and releases it with DB(ctx).Close.
func ConnCtx(ctx context.Context) (context.Context, error) {
	conn, err := Conn(ctx)
	if err != nil {
		return ctx, err
	}
	return context.WithValue(ctx, ctxDbKey, conn), nil
}

type stewardCatalogDb struct {
	MetadataManager
	RevisionManager
	ConnectionManager
}

func DB(ctx context.Context) DB_ {
	if conn, ok := ctx.Value(ctxDbKey).(dbmanager.PooledConn); ok {
		mm, rm, cm := postgresql.NewStewardCatalogDb(conn)
		return &stewardCatalogDb{
			MetadataManager:   mm,
			RevisionManager:   rm,
			ConnectionManager: cm,
		}
	}
	log.Ctx(ctx).Error().Msg("unable to get db connection from context")
	return nil
}
