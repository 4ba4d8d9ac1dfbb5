package assetmanager

import (
	"testing"

	"github.com/google/uuid"
	json "github.com/json-iterator/go"
	"github.com/stewarddata/steward-internal/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeamSchemaValidate(t *testing.T) {
	tests := []struct {
		name      string
		schema    teamSchema
		errSubstr string
	}{
		{
			name: "valid team",
			schema: teamSchema{
				Name:  "data-platform",
				Title: "Data Platform",
				Members: []teamMemberSchema{
					{MemberType: types.MemberTypeUser, MemberIdentifier: "alice@example.com"},
					{MemberType: types.MemberTypeGroup, MemberIdentifier: "platform-engineers"},
				},
			},
		},
		{
			name:      "missing name",
			schema:    teamSchema{Title: "Data Platform"},
			errSubstr: "name",
		},
		{
			name: "unknown member type",
			schema: teamSchema{
				Name: "data-platform",
				Members: []teamMemberSchema{
					{MemberType: "robot", MemberIdentifier: "bot@example.com"},
				},
			},
			errSubstr: "member_type",
		},
		{
			name: "member without identifier",
			schema: teamSchema{
				Name: "data-platform",
				Members: []teamMemberSchema{
					{MemberType: types.MemberTypeUser},
				},
			},
			errSubstr: "member_identifier",
		},
		{
			name:      "blank tag",
			schema:    teamSchema{Name: "data-platform", Tags: []string{" "}},
			errSubstr: "tags",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.schema.Validate()
			if tt.errSubstr == "" {
				assert.Nil(t, errs)
				return
			}
			require.NotNil(t, errs)
			assert.Contains(t, errs.Error(), tt.errSubstr)
		})
	}
}

func TestTeamModelRoundTrip(t *testing.T) {
	domainID := uuid.New()
	schema := &teamSchema{
		Name:        "data-platform",
		Title:       "Data Platform",
		Description: "owns the lakehouse",
		DomainID:    &domainID,
		Tags:        []string{"core"},
		Metadata:    map[string]any{"slack": "#data-platform"},
		Members: []teamMemberSchema{
			{MemberType: types.MemberTypeUser, MemberIdentifier: "alice@example.com", AppRoleOverride: "admin"},
		},
	}

	model := schema.toModel()
	require.True(t, model.DomainID.Valid)
	assert.Equal(t, domainID, model.DomainID.UUID)

	back := teamSchemaFromModel(model)
	assert.Equal(t, schema.Name, back.Name)
	assert.Equal(t, schema.Title, back.Title)
	assert.Equal(t, schema.Description, back.Description)
	require.NotNil(t, back.DomainID)
	assert.Equal(t, domainID, *back.DomainID)
	assert.Equal(t, []string{"core"}, back.Tags)
	assert.Equal(t, map[string]any{"slack": "#data-platform"}, back.Metadata)
	require.Len(t, back.Members, 1)
	assert.Equal(t, types.MemberTypeUser, back.Members[0].MemberType)
	assert.Equal(t, "alice@example.com", back.Members[0].MemberIdentifier)
	assert.Equal(t, "admin", back.Members[0].AppRoleOverride)
}

func TestTeamMembersDecoding(t *testing.T) {
	schema := &teamSchema{
		Name: "governance",
		Members: []teamMemberSchema{
			{MemberType: types.MemberTypeUser, MemberIdentifier: "bob@example.com"},
		},
	}
	model := schema.toModel()

	members := teamMembers(model)
	require.Len(t, members, 1)
	assert.Equal(t, "bob@example.com", members[0].MemberIdentifier)

	// A roster stored as JSON null reads back as an empty list.
	empty := (&teamSchema{Name: "empty"}).toModel()
	assert.Equal(t, []teamMemberSchema{}, teamMembers(empty))
}

func TestTeamMemberSerialization(t *testing.T) {
	member := teamMemberSchema{
		MemberType:       types.MemberTypeGroup,
		MemberIdentifier: "platform-engineers",
	}
	data, err := json.Marshal(member)
	require.NoError(t, err)
	assert.JSONEq(t, `{"member_type":"group","member_identifier":"platform-engineers"}`, string(data))
}
