package db

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/rs/zerolog/log"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/dberror"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonb(t *testing.T, s string) pgtype.JSONB {
	t.Helper()
	var j pgtype.JSONB
	require.NoError(t, j.Set([]byte(s)))
	return j
}

func nullJsonb() pgtype.JSONB {
	return pgtype.JSONB{Status: pgtype.Null}
}

func newTestProduct(t *testing.T, id string) *models.DataProduct {
	return &models.DataProduct{
		ID:          id,
		SpecVersion: "0.0.1",
		Version:     "1.0.0",
		Title:       "Customer 360",
		Owner:       "data-platform",
		Description: "unified customer view",
		Status:      "active",
		Archetype:   "consumer-aligned",
		Tags:        jsonb(t, `["pii", "gold"]`),
		Links:       nullJsonb(),
		Custom:      nullJsonb(),
		InputPorts: []models.InputPort{
			{
				Name:           "crm-feed",
				PortType:       "source-aligned",
				AssetType:      "table",
				SourceSystemID: "crm",
				Links:          nullJsonb(),
				Custom:         nullJsonb(),
				Tags:           nullJsonb(),
			},
		},
		OutputPorts: []models.OutputPort{
			{
				Name:        "customer-profile",
				PortType:    "consumer-aligned",
				AssetType:   "view",
				ContainsPII: true,
				Server:      jsonb(t, `{"catalog": "main", "schema": "gold"}`),
				Links:       nullJsonb(),
				Custom:      nullJsonb(),
				Tags:        nullJsonb(),
			},
		},
	}
}

func TestCreateDataProduct(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	ctx = newDb(ctx)
	defer DB(ctx).Close(ctx)

	product := newTestProduct(t, "dp-test-create")
	err := DB(ctx).CreateDataProduct(ctx, product)
	assert.NoError(t, err)
	defer DB(ctx).DeleteDataProduct(ctx, product.ID)

	// Creating the same product again should return ErrAlreadyExists
	err = DB(ctx).CreateDataProduct(ctx, newTestProduct(t, "dp-test-create"))
	assert.Error(t, err)
	assert.ErrorIs(t, err, dberror.ErrAlreadyExists)

	// A product without an ID is invalid
	invalid := newTestProduct(t, "")
	err = DB(ctx).CreateDataProduct(ctx, invalid)
	assert.Error(t, err)
	assert.ErrorIs(t, err, dberror.ErrInvalidInput)
}

func TestGetDataProduct(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	ctx = newDb(ctx)
	defer DB(ctx).Close(ctx)

	product := newTestProduct(t, "dp-test-get")
	err := DB(ctx).CreateDataProduct(ctx, product)
	assert.NoError(t, err)
	defer DB(ctx).DeleteDataProduct(ctx, product.ID)

	got, err := DB(ctx).GetDataProduct(ctx, product.ID)
	assert.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, product.ID, got.ID)
	assert.Equal(t, "Customer 360", got.Title)
	assert.Len(t, got.InputPorts, 1)
	assert.Len(t, got.OutputPorts, 1)
	assert.Equal(t, "crm-feed", got.InputPorts[0].Name)
	assert.True(t, got.OutputPorts[0].ContainsPII)

	_, err = DB(ctx).GetDataProduct(ctx, "no-such-product")
	assert.Error(t, err)
	assert.ErrorIs(t, err, dberror.ErrNotFound)
}

func TestUpdateDataProduct(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	ctx = newDb(ctx)
	defer DB(ctx).Close(ctx)

	product := newTestProduct(t, "dp-test-update")
	err := DB(ctx).CreateDataProduct(ctx, product)
	assert.NoError(t, err)
	defer DB(ctx).DeleteDataProduct(ctx, product.ID)

	product.Title = "Customer 360 v2"
	product.Status = "deprecated"
	product.InputPorts = nil
	product.OutputPorts = append(product.OutputPorts, models.OutputPort{
		Name:      "customer-events",
		PortType:  "consumer-aligned",
		AssetType: "streaming_table",
		Server:    nullJsonb(),
		Links:     nullJsonb(),
		Custom:    nullJsonb(),
		Tags:      nullJsonb(),
	})
	err = DB(ctx).UpdateDataProduct(ctx, product)
	assert.NoError(t, err)

	got, err := DB(ctx).GetDataProduct(ctx, product.ID)
	assert.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Customer 360 v2", got.Title)
	assert.Equal(t, "deprecated", got.Status)
	assert.Len(t, got.InputPorts, 0)
	assert.Len(t, got.OutputPorts, 2)

	// Updating a missing product should return ErrNotFound
	missing := newTestProduct(t, "dp-test-missing")
	err = DB(ctx).UpdateDataProduct(ctx, missing)
	assert.Error(t, err)
	assert.ErrorIs(t, err, dberror.ErrNotFound)
}

func TestDeleteDataProduct(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	ctx = newDb(ctx)
	defer DB(ctx).Close(ctx)

	product := newTestProduct(t, "dp-test-delete")
	err := DB(ctx).CreateDataProduct(ctx, product)
	assert.NoError(t, err)

	err = DB(ctx).DeleteDataProduct(ctx, product.ID)
	assert.NoError(t, err)

	err = DB(ctx).DeleteDataProduct(ctx, product.ID)
	assert.Error(t, err)
	assert.ErrorIs(t, err, dberror.ErrNotFound)
}

func TestListDataProductOwners(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	ctx = newDb(ctx)
	defer DB(ctx).Close(ctx)

	p1 := newTestProduct(t, "dp-test-owner-1")
	p2 := newTestProduct(t, "dp-test-owner-2")
	p2.Owner = "analytics"
	assert.NoError(t, DB(ctx).CreateDataProduct(ctx, p1))
	defer DB(ctx).DeleteDataProduct(ctx, p1.ID)
	assert.NoError(t, DB(ctx).CreateDataProduct(ctx, p2))
	defer DB(ctx).DeleteDataProduct(ctx, p2.ID)

	owners, err := DB(ctx).ListDataProductOwners(ctx)
	assert.NoError(t, err)
	assert.Contains(t, owners, "data-platform")
	assert.Contains(t, owners, "analytics")
}

func TestDataDomainCRUD(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	ctx = newDb(ctx)
	defer DB(ctx).Close(ctx)

	domain := &models.DataDomain{
		Name:        "test-finance",
		Description: "finance data",
		Tags:        jsonb(t, `["core"]`),
		CreatedBy:   "tester@example.com",
	}
	err := DB(ctx).CreateDataDomain(ctx, domain)
	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, domain.DomainID)
	defer DB(ctx).DeleteDataDomain(ctx, domain.DomainID)

	// Duplicate name should conflict
	dup := &models.DataDomain{Name: "test-finance", Tags: nullJsonb(), CreatedBy: "tester@example.com"}
	err = DB(ctx).CreateDataDomain(ctx, dup)
	assert.Error(t, err)
	assert.ErrorIs(t, err, dberror.ErrAlreadyExists)

	// Lookup by name
	got, err := DB(ctx).GetDataDomain(ctx, uuid.Nil, "test-finance")
	assert.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.DomainID, got.DomainID)

	// Child domain
	child := &models.DataDomain{
		Name:      "test-finance-billing",
		ParentID:  uuid.NullUUID{UUID: domain.DomainID, Valid: true},
		Tags:      nullJsonb(),
		CreatedBy: "tester@example.com",
	}
	err = DB(ctx).CreateDataDomain(ctx, child)
	assert.NoError(t, err)

	children, err := DB(ctx).ListChildDomains(ctx, domain.DomainID)
	assert.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "test-finance-billing", children[0].Name)

	// A domain with children cannot be deleted
	err = DB(ctx).DeleteDataDomain(ctx, domain.DomainID)
	assert.Error(t, err)
	assert.ErrorIs(t, err, dberror.ErrHasChildren)

	err = DB(ctx).DeleteDataDomain(ctx, child.DomainID)
	assert.NoError(t, err)

	// A child referencing a missing parent is invalid
	orphan := &models.DataDomain{
		Name:      "test-orphan",
		ParentID:  uuid.NullUUID{UUID: uuid.New(), Valid: true},
		Tags:      nullJsonb(),
		CreatedBy: "tester@example.com",
	}
	err = DB(ctx).CreateDataDomain(ctx, orphan)
	assert.Error(t, err)
	assert.ErrorIs(t, err, dberror.ErrInvalidDomain)
}

func TestTeamCRUD(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	ctx = newDb(ctx)
	defer DB(ctx).Close(ctx)

	team := &models.Team{
		Name:        "test-platform-team",
		Title:       "Platform Team",
		Description: "runs the platform",
		Members:     jsonb(t, `[{"member_type": "user", "member_identifier": "alice@example.com"}]`),
		Tags:        nullJsonb(),
		Metadata:    nullJsonb(),
		CreatedBy:   "tester@example.com",
		UpdatedBy:   "tester@example.com",
	}
	err := DB(ctx).CreateTeam(ctx, team)
	assert.NoError(t, err)
	defer DB(ctx).DeleteTeam(ctx, team.TeamID)

	err = DB(ctx).CreateTeam(ctx, &models.Team{
		Name: "test-platform-team", Members: nullJsonb(), Tags: nullJsonb(), Metadata: nullJsonb(),
		CreatedBy: "tester@example.com", UpdatedBy: "tester@example.com",
	})
	assert.Error(t, err)
	assert.ErrorIs(t, err, dberror.ErrAlreadyExists)

	got, err := DB(ctx).GetTeam(ctx, uuid.Nil, "test-platform-team")
	assert.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Platform Team", got.Title)

	got.Title = "Platform Engineering"
	got.UpdatedBy = "updater@example.com"
	err = DB(ctx).UpdateTeam(ctx, got)
	assert.NoError(t, err)

	got, err = DB(ctx).GetTeam(ctx, got.TeamID, "")
	assert.NoError(t, err)
	assert.Equal(t, "Platform Engineering", got.Title)
}

func TestNotificationCRUD(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	ctx = newDb(ctx)
	defer DB(ctx).Close(ctx)

	n := &models.Notification{
		Type:          "info",
		Title:         "test notification",
		Recipient:     "tester@example.com",
		CanDelete:     true,
		ActionPayload: nullJsonb(),
	}
	err := DB(ctx).CreateNotification(ctx, n)
	assert.NoError(t, err)
	defer DB(ctx).DeleteNotification(ctx, n.NotificationID)

	list, err := DB(ctx).ListNotifications(ctx, "tester@example.com")
	assert.NoError(t, err)
	require.NotEmpty(t, list)
	assert.False(t, list[0].Read)

	err = DB(ctx).SetNotificationRead(ctx, n.NotificationID, true)
	assert.NoError(t, err)

	got, err := DB(ctx).GetNotification(ctx, n.NotificationID)
	assert.NoError(t, err)
	assert.True(t, got.Read)

	// A notification flagged as not deletable stays put
	sticky := &models.Notification{
		Type:          "action_required",
		Title:         "review required",
		Recipient:     "tester@example.com",
		CanDelete:     false,
		ActionPayload: nullJsonb(),
	}
	err = DB(ctx).CreateNotification(ctx, sticky)
	assert.NoError(t, err)
	err = DB(ctx).DeleteNotification(ctx, sticky.NotificationID)
	assert.Error(t, err)
	assert.ErrorIs(t, err, dberror.ErrNotFound)
}

func TestCompliancePolicyCRUD(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	ctx = newDb(ctx)
	defer DB(ctx).Close(ctx)

	policy := &models.CompliancePolicy{
		Name:     "Owner required",
		Slug:     "test-owner-required",
		Rule:     `function(product) { return product.owner !== ""; }`,
		Severity: "high",
		IsActive: true,
	}
	err := DB(ctx).CreateCompliancePolicy(ctx, policy)
	assert.NoError(t, err)
	defer DB(ctx).DeleteCompliancePolicy(ctx, policy.PolicyID)

	dup := &models.CompliancePolicy{Name: "dup", Slug: "test-owner-required", Rule: "function(p) { return true; }"}
	err = DB(ctx).CreateCompliancePolicy(ctx, dup)
	assert.Error(t, err)
	assert.ErrorIs(t, err, dberror.ErrAlreadyExists)

	got, err := DB(ctx).GetCompliancePolicy(ctx, uuid.Nil, "test-owner-required")
	assert.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsActive)

	err = DB(ctx).UpdatePolicyCompliance(ctx, got.PolicyID, 87.5)
	assert.NoError(t, err)
	got, err = DB(ctx).GetCompliancePolicy(ctx, got.PolicyID, "")
	assert.NoError(t, err)
	assert.InDelta(t, 87.5, got.Compliance, 0.01)

	run := &models.ComplianceRun{
		PolicyID: got.PolicyID,
		Results:  nullJsonb(),
	}
	err = DB(ctx).CreateComplianceRun(ctx, run)
	assert.NoError(t, err)
	assert.Equal(t, "queued", run.Status)

	run.Status = "succeeded"
	run.SuccessCount = 7
	run.FailureCount = 1
	run.Score = 87.5
	err = DB(ctx).UpdateComplianceRun(ctx, run)
	assert.NoError(t, err)

	runs, err := DB(ctx).ListComplianceRuns(ctx, got.PolicyID, 10)
	assert.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "succeeded", runs[0].Status)
	assert.Equal(t, 7, runs[0].SuccessCount)
}

func TestProductRevisions(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	ctx = newDb(ctx)
	defer DB(ctx).Close(ctx)

	product := newTestProduct(t, "dp-test-revisions")
	err := DB(ctx).CreateDataProduct(ctx, product)
	assert.NoError(t, err)
	defer DB(ctx).DeleteDataProduct(ctx, product.ID)

	doc1 := []byte(`{"id": "dp-test-revisions", "info": {"title": "v1"}}`)
	doc2 := []byte(`{"id": "dp-test-revisions", "info": {"title": "v2"}}`)

	rev1 := &models.ProductRevision{DataProductID: product.ID, Data: doc1, CreatedBy: "tester@example.com"}
	err = DB(ctx).CreateRevision(ctx, rev1)
	assert.NoError(t, err)
	assert.Equal(t, 1, rev1.Sequence)

	rev2 := &models.ProductRevision{DataProductID: product.ID, Data: doc2, CreatedBy: "tester@example.com"}
	err = DB(ctx).CreateRevision(ctx, rev2)
	assert.NoError(t, err)
	assert.Equal(t, 2, rev2.Sequence)

	// Latest revision round-trips through compression
	latest, err := DB(ctx).GetRevision(ctx, product.ID, 0)
	assert.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 2, latest.Sequence)
	assert.Equal(t, doc2, latest.Data)

	first, err := DB(ctx).GetRevision(ctx, product.ID, 1)
	assert.NoError(t, err)
	assert.Equal(t, doc1, first.Data)

	revs, err := DB(ctx).ListRevisions(ctx, product.ID)
	assert.NoError(t, err)
	assert.Len(t, revs, 2)

	err = DB(ctx).DeleteRevisions(ctx, product.ID)
	assert.NoError(t, err)
	_, err = DB(ctx).GetRevision(ctx, product.ID, 0)
	assert.Error(t, err)
	assert.ErrorIs(t, err, dberror.ErrNotFound)
}

func TestSigningKeyCRUD(t *testing.T) {
	ctx := log.Logger.WithContext(context.Background())
	ctx = newDb(ctx)
	defer DB(ctx).Close(ctx)

	key1 := &models.SigningKey{
		PublicKey:  []byte("public-key-1"),
		PrivateKey: []byte("encrypted-private-key-1"),
		IsActive:   true,
	}
	err := DB(ctx).CreateSigningKey(ctx, key1)
	assert.NoError(t, err)
	defer DB(ctx).DeleteSigningKey(ctx, key1.KeyID)

	active, err := DB(ctx).GetActiveSigningKey(ctx)
	assert.NoError(t, err)
	assert.Equal(t, key1.KeyID, active.KeyID)

	// Creating a second active key deactivates the first
	key2 := &models.SigningKey{
		PublicKey:  []byte("public-key-2"),
		PrivateKey: []byte("encrypted-private-key-2"),
		IsActive:   true,
	}
	err = DB(ctx).CreateSigningKey(ctx, key2)
	assert.NoError(t, err)
	defer DB(ctx).DeleteSigningKey(ctx, key2.KeyID)

	active, err = DB(ctx).GetActiveSigningKey(ctx)
	assert.NoError(t, err)
	assert.Equal(t, key2.KeyID, active.KeyID)

	old, err := DB(ctx).GetSigningKey(ctx, key1.KeyID)
	assert.NoError(t, err)
	assert.False(t, old.IsActive)
}

func newDb(c ...context.Context) context.Context {
	var parent context.Context
	if len(c) > 0 {
		parent = c[0]
	} else {
		parent = context.Background()
	}
	ctx, err := ConnCtx(parent)
	if err != nil {
		panic("unable to get db connection for test: " + err.Error())
	}
	return ctx
}
