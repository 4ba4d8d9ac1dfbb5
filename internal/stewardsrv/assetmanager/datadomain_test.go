package assetmanager

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	json "github.com/json-iterator/go"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonbOf(t *testing.T, v any) pgtype.JSONB {
	t.Helper()
	var j pgtype.JSONB
	require.NoError(t, j.Set(v))
	return j
}

func TestDecodeTagList(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		in   pgtype.JSONB
		want []string
	}{
		{
			name: "proper list",
			in:   jsonbOf(t, []string{"finance", "restricted"}),
			want: []string{"finance", "restricted"},
		},
		{
			name: "empty list",
			in:   jsonbOf(t, []string{}),
			want: []string{},
		},
		{
			name: "null column",
			in:   pgtype.JSONB{Status: pgtype.Null},
			want: []string{},
		},
		{
			name: "stored json null",
			in:   pgtype.JSONB{Bytes: []byte("null"), Status: pgtype.Present},
			want: []string{},
		},
		{
			// Legacy rows hold the list as one JSON string of a
			// Python-style literal.
			name: "stringified single quoted literal",
			in:   pgtype.JSONB{Bytes: []byte(`"['finance', 'restricted']"`), Status: pgtype.Present},
			want: []string{"finance", "restricted"},
		},
		{
			name: "stringified double quoted literal",
			in:   pgtype.JSONB{Bytes: []byte(`"[\"finance\"]"`), Status: pgtype.Present},
			want: []string{"finance"},
		},
		{
			name: "unparsable literal",
			in:   pgtype.JSONB{Bytes: []byte(`"not a list at all"`), Status: pgtype.Present},
			want: []string{},
		},
		{
			name: "garbage bytes",
			in:   pgtype.JSONB{Bytes: []byte(`{{{`), Status: pgtype.Present},
			want: []string{},
		},
		{
			name: "unexpected shape",
			in:   jsonbOf(t, map[string]string{"a": "b"}),
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeTagList(ctx, tt.in))
		})
	}
}

func TestDomainSchemaValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		schema := &domainSchema{Name: "finance", Tags: []string{"restricted"}}
		assert.Nil(t, schema.Validate())
	})

	t.Run("missing name", func(t *testing.T) {
		schema := &domainSchema{}
		errs := schema.Validate()
		require.NotNil(t, errs)
		assert.Contains(t, errs.Error(), "name")
	})

	t.Run("blank tag", func(t *testing.T) {
		schema := &domainSchema{Name: "finance", Tags: []string{"ok", "   "}}
		errs := schema.Validate()
		require.NotNil(t, errs)
		assert.Contains(t, errs.Error(), "tags")
	})
}

func TestDomainModelRoundTrip(t *testing.T) {
	ctx := context.Background()
	teamID := uuid.New()
	parentID := uuid.New()

	schema := &domainSchema{
		Name:        "finance",
		Description: "money things",
		OwnerTeamID: &teamID,
		ParentID:    &parentID,
		Tags:        []string{"restricted"},
	}

	model := schema.toModel()
	require.True(t, model.OwnerTeamID.Valid)
	assert.Equal(t, teamID, model.OwnerTeamID.UUID)
	require.True(t, model.ParentID.Valid)
	assert.Equal(t, parentID, model.ParentID.UUID)

	back := domainSchemaFromModel(ctx, model)
	assert.Equal(t, schema.Name, back.Name)
	assert.Equal(t, schema.Description, back.Description)
	require.NotNil(t, back.OwnerTeamID)
	assert.Equal(t, teamID, *back.OwnerTeamID)
	require.NotNil(t, back.ParentID)
	assert.Equal(t, parentID, *back.ParentID)
	assert.Equal(t, []string{"restricted"}, back.Tags)
}

func TestDomainModelNoAssociations(t *testing.T) {
	schema := &domainSchema{Name: "finance"}
	model := schema.toModel()
	assert.False(t, model.OwnerTeamID.Valid)
	assert.False(t, model.ParentID.Valid)

	back := domainSchemaFromModel(context.Background(), model)
	assert.Nil(t, back.OwnerTeamID)
	assert.Nil(t, back.ParentID)
	assert.Equal(t, []string{}, back.Tags)
}

func TestDomainDocument(t *testing.T) {
	ctx := context.Background()
	parent := &models.DataDomain{DomainID: uuid.New(), Name: "corporate"}
	child1 := &models.DataDomain{DomainID: uuid.New(), Name: "payables"}
	child2 := &models.DataDomain{DomainID: uuid.New(), Name: "receivables"}
	domain := &models.DataDomain{
		DomainID:  uuid.New(),
		Name:      "finance",
		ParentID:  uuid.NullUUID{UUID: parent.DomainID, Valid: true},
		Tags:      jsonbOf(t, []string{"restricted"}),
		CreatedBy: "admin@example.com",
	}

	doc := domainDocument(ctx, domain, parent, []*models.DataDomain{child1, child2})
	assert.Equal(t, "finance", doc.Name)
	assert.Equal(t, "corporate", doc.ParentName)
	require.NotNil(t, doc.ParentInfo)
	assert.Equal(t, parent.DomainID, doc.ParentInfo.ID)
	assert.Equal(t, 2, doc.ChildrenCount)
	require.Len(t, doc.ChildrenInfo, 2)
	assert.Equal(t, "payables", doc.ChildrenInfo[0].Name)
	assert.Equal(t, "admin@example.com", doc.CreatedBy)
}

func TestDomainDocumentNoHierarchy(t *testing.T) {
	domain := &models.DataDomain{DomainID: uuid.New(), Name: "finance"}
	doc := domainDocument(context.Background(), domain, nil, nil)
	assert.Empty(t, doc.ParentName)
	assert.Nil(t, doc.ParentInfo)
	assert.Equal(t, 0, doc.ChildrenCount)
	assert.NotNil(t, doc.ChildrenInfo)

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	// Children summaries serialize as an empty list, never null.
	assert.Contains(t, string(data), `"children_info":[]`)
	assert.NotContains(t, string(data), `"parent_id"`)
}

func TestJsonFieldIsNull(t *testing.T) {
	doc := []byte(`{"parent_id": null, "owner_team_id": "` + uuid.NewString() + `", "name": "x"}`)
	assert.True(t, jsonFieldIsNull(doc, "parent_id"))
	assert.False(t, jsonFieldIsNull(doc, "owner_team_id"))
	assert.False(t, jsonFieldIsNull(doc, "description"))
}
