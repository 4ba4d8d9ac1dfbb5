package assetmanager

import (
	"context"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	json "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/stewarddata/steward-internal/internal/common/apperrors"
	schemaerr "github.com/stewarddata/steward-internal/internal/stewardsrv/assetmanager/schema/errors"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/assetmanager/schema/schemavalidator"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/assetmanager/schemamanager"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/dberror"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/models"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/stewcommon"
	"github.com/stewarddata/steward-internal/pkg/types"
)

// teamMemberSchema is one entry in a team roster. The identifier is an
// email for users and a group name for groups.
type teamMemberSchema struct {
	MemberType       types.MemberType `json:"member_type" validate:"required,memberTypeValidator"`
	MemberIdentifier string           `json:"member_identifier" validate:"required"`
	AppRoleOverride  string           `json:"app_role_override,omitempty"`
}

// teamSchema is the wire form of a team create request.
type teamSchema struct {
	Name        string             `json:"name" validate:"required"`
	Title       string             `json:"title,omitempty"`
	Description string             `json:"description,omitempty"`
	DomainID    *uuid.UUID         `json:"domain_id,omitempty"`
	Tags        []string           `json:"tags,omitempty" validate:"omitempty,dive,notBlank"`
	Metadata    map[string]any     `json:"metadata,omitempty"`
	Members     []teamMemberSchema `json:"members,omitempty" validate:"omitempty,dive"`
}

// teamUpdateSchema carries a partial update. Absent fields keep their
// stored values; domain_id may be set to JSON null to detach the team.
type teamUpdateSchema struct {
	Name        *string             `json:"name,omitempty"`
	Title       *string             `json:"title,omitempty"`
	Description *string             `json:"description,omitempty"`
	DomainID    *uuid.UUID          `json:"domain_id,omitempty"`
	Tags        *[]string           `json:"tags,omitempty"`
	Metadata    *map[string]any     `json:"metadata,omitempty"`
	Members     *[]teamMemberSchema `json:"members,omitempty"`
}

// teamReadSchema is the read form of a team.
type teamReadSchema struct {
	ID          uuid.UUID          `json:"id"`
	Name        string             `json:"name"`
	Title       string             `json:"title,omitempty"`
	Description string             `json:"description,omitempty"`
	DomainID    *uuid.UUID         `json:"domain_id,omitempty"`
	DomainName  string             `json:"domain_name,omitempty"`
	Tags        []string           `json:"tags"`
	Metadata    map[string]any     `json:"metadata"`
	Members     []teamMemberSchema `json:"members"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	CreatedBy   string             `json:"created_by"`
	UpdatedBy   string             `json:"updated_by"`
}

// TeamSummary is the compact listing form used by pickers and dropdowns.
type TeamSummary struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Title       string     `json:"title,omitempty"`
	DomainID    *uuid.UUID `json:"domain_id,omitempty"`
	MemberCount int        `json:"member_count"`
}

func (ts *teamSchema) Validate() schemaerr.ValidationErrors {
	var validationErrors schemaerr.ValidationErrors

	err := schemavalidator.V().Struct(ts)
	if err == nil {
		return validationErrors
	}

	validatorErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return append(validationErrors, schemaerr.ErrInvalidSchema)
	}

	value := reflect.ValueOf(ts).Elem()
	typeOfSchema := value.Type()

	for _, e := range validatorErrors {
		jsonFieldName := schemavalidator.GetJSONFieldPath(value, typeOfSchema, e.StructField())

		switch e.Tag() {
		case "required":
			validationErrors = append(validationErrors, schemaerr.ErrMissingRequiredAttribute(jsonFieldName))
		case "memberTypeValidator":
			val, _ := e.Value().(string)
			validationErrors = append(validationErrors, schemaerr.ErrInvalidValue(jsonFieldName, val))
		case "notBlank":
			val, _ := e.Value().(string)
			validationErrors = append(validationErrors, schemaerr.ErrInvalidValue(jsonFieldName, val))
		default:
			validationErrors = append(validationErrors, schemaerr.ErrValidationFailed(jsonFieldName))
		}
	}

	return validationErrors
}

func (ts *teamSchema) applyDefaults() {
	if ts.Tags == nil {
		ts.Tags = []string{}
	}
	if ts.Metadata == nil {
		ts.Metadata = map[string]any{}
	}
	if ts.Members == nil {
		ts.Members = []teamMemberSchema{}
	}
}

func (ts *teamSchema) toModel() *models.Team {
	team := &models.Team{
		Name:        ts.Name,
		Title:       ts.Title,
		Description: ts.Description,
		Members:     jsonbFrom(ts.Members),
		Tags:        jsonbFrom(ts.Tags),
		Metadata:    jsonbFrom(ts.Metadata),
	}
	if ts.DomainID != nil {
		team.DomainID = uuid.NullUUID{UUID: *ts.DomainID, Valid: true}
	}
	return team
}

func teamSchemaFromModel(m *models.Team) *teamSchema {
	schema := &teamSchema{
		Name:        m.Name,
		Title:       m.Title,
		Description: m.Description,
	}
	if m.DomainID.Valid {
		id := m.DomainID.UUID
		schema.DomainID = &id
	}
	unmarshalJSONB(m.Tags, &schema.Tags)
	unmarshalJSONB(m.Metadata, &schema.Metadata)
	unmarshalJSONB(m.Members, &schema.Members)
	schema.applyDefaults()
	return schema
}

func teamMembers(m *models.Team) []teamMemberSchema {
	members := []teamMemberSchema{}
	unmarshalJSONB(m.Members, &members)
	return members
}

// teamDocument builds the read form. The domain name is resolved at read
// time when the team belongs to a domain.
func teamDocument(ctx context.Context, m *models.Team) *teamReadSchema {
	doc := &teamReadSchema{
		ID:          m.TeamID,
		Name:        m.Name,
		Title:       m.Title,
		Description: m.Description,
		Tags:        []string{},
		Metadata:    map[string]any{},
		Members:     teamMembers(m),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		CreatedBy:   m.CreatedBy,
		UpdatedBy:   m.UpdatedBy,
	}
	unmarshalJSONB(m.Tags, &doc.Tags)
	unmarshalJSONB(m.Metadata, &doc.Metadata)
	if m.DomainID.Valid {
		id := m.DomainID.UUID
		doc.DomainID = &id
		if domain, err := db.DB(ctx).GetDataDomain(ctx, id, ""); err == nil {
			doc.DomainName = domain.Name
		} else if !err.Is(dberror.ErrNotFound) {
			log.Ctx(ctx).Warn().Err(err).Str("domain_id", id.String()).Msg("failed to resolve team domain name")
		}
	}
	return doc
}

// teamManager manages a single team
type teamManager struct {
	team models.Team
}

func (tm *teamManager) ID() uuid.UUID {
	return tm.team.TeamID
}

func (tm *teamManager) Name() string {
	return tm.team.Name
}

func (tm *teamManager) Save(ctx context.Context) apperrors.Error {
	err := db.DB(ctx).CreateTeam(ctx, &tm.team)
	if err != nil {
		if err.Is(dberror.ErrAlreadyExists) {
			return ErrAlreadyExists.Msg("Team with name '" + tm.team.Name + "' already exists.")
		}
		return err
	}
	log.Ctx(ctx).Info().Str("name", tm.team.Name).Str("team_id", tm.team.TeamID.String()).Msg("created team")
	return nil
}

func (tm *teamManager) ToJson(ctx context.Context) ([]byte, apperrors.Error) {
	jsonData, errJson := json.Marshal(teamDocument(ctx, &tm.team))
	if errJson != nil {
		log.Ctx(ctx).Error().Err(errJson).Msg("failed to marshal team to JSON")
		return nil, ErrUnableToLoadObject
	}
	return jsonData, nil
}

// NewTeamManager creates a team manager from a JSON document.
func NewTeamManager(ctx context.Context, resourceJSON []byte) (schemamanager.TeamManager, apperrors.Error) {
	if len(resourceJSON) == 0 {
		return nil, ErrInvalidSchema
	}

	schema := &teamSchema{}
	if err := json.Unmarshal(resourceJSON, schema); err != nil {
		return nil, ErrInvalidSchema.Err(err)
	}
	schema.applyDefaults()

	validationErrors := schema.Validate()
	if validationErrors != nil {
		return nil, ErrInvalidSchema.Err(validationErrors)
	}

	if schema.DomainID != nil {
		if _, err := db.DB(ctx).GetDataDomain(ctx, *schema.DomainID, ""); err != nil {
			if err.Is(dberror.ErrNotFound) {
				return nil, ErrInvalidRequest.Msg("data domain does not exist")
			}
			return nil, err
		}
	}

	team := schema.toModel()
	user := stewcommon.UserContextFromContext(ctx).DisplayName()
	team.CreatedBy = user
	team.UpdatedBy = user

	return &teamManager{team: *team}, nil
}

// LoadTeamManager loads an existing team by id or name.
func LoadTeamManager(ctx context.Context, id uuid.UUID, name string) (schemamanager.TeamManager, apperrors.Error) {
	team, err := db.DB(ctx).GetTeam(ctx, id, name)
	if err != nil {
		if err.Is(dberror.ErrNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return &teamManager{team: *team}, nil
}

// teamResource implements the KindHandler interface for teams
type teamResource struct {
	requestContext RequestContext
	manager        schemamanager.TeamManager
}

func (tr *teamResource) Location() string {
	id := tr.requestContext.ObjectID
	if tr.manager != nil {
		id = tr.manager.ID()
	}
	return "/teams/" + id.String()
}

func (tr *teamResource) Create(ctx context.Context, resourceJSON []byte) (string, apperrors.Error) {
	manager, err := NewTeamManager(ctx, resourceJSON)
	if err != nil {
		return "", err
	}

	if err := manager.Save(ctx); err != nil {
		return "", err
	}

	tr.manager = manager
	tr.requestContext.ObjectID = manager.ID()
	return tr.Location(), nil
}

func (tr *teamResource) Get(ctx context.Context) ([]byte, apperrors.Error) {
	manager, err := LoadTeamManager(ctx, tr.requestContext.ObjectID, tr.requestContext.ObjectName)
	if err != nil {
		return nil, err
	}
	return manager.ToJson(ctx)
}

func (tr *teamResource) List(ctx context.Context) ([]byte, apperrors.Error) {
	teams, err := db.DB(ctx).ListTeams(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to list teams")
		return nil, err
	}

	docs := make([]*teamReadSchema, 0, len(teams))
	for _, t := range teams {
		docs = append(docs, teamDocument(ctx, t))
	}

	jsonData, errJson := json.Marshal(docs)
	if errJson != nil {
		log.Ctx(ctx).Error().Err(errJson).Msg("failed to marshal teams to JSON")
		return nil, ErrUnableToLoadObject
	}
	return jsonData, nil
}

// Update applies a partial update to an existing team.
func (tr *teamResource) Update(ctx context.Context, resourceJSON []byte) apperrors.Error {
	existing, dbErr := db.DB(ctx).GetTeam(ctx, tr.requestContext.ObjectID, tr.requestContext.ObjectName)
	if dbErr != nil {
		if dbErr.Is(dberror.ErrNotFound) {
			return ErrTeamNotFound
		}
		return dbErr
	}

	update := &teamUpdateSchema{}
	if err := json.Unmarshal(resourceJSON, update); err != nil {
		return ErrInvalidSchema.Err(err)
	}

	merged := teamSchemaFromModel(existing)
	if update.Name != nil {
		merged.Name = *update.Name
	}
	if update.Title != nil {
		merged.Title = *update.Title
	}
	if update.Description != nil {
		merged.Description = *update.Description
	}
	if update.Tags != nil {
		merged.Tags = *update.Tags
	}
	if update.Metadata != nil {
		merged.Metadata = *update.Metadata
	}
	if update.Members != nil {
		merged.Members = *update.Members
	}
	if update.DomainID != nil {
		merged.DomainID = update.DomainID
	} else if jsonFieldIsNull(resourceJSON, "domain_id") {
		merged.DomainID = nil
	}
	merged.applyDefaults()

	validationErrors := merged.Validate()
	if validationErrors != nil {
		return ErrInvalidSchema.Err(validationErrors)
	}

	if merged.Name != existing.Name {
		if other, err := db.DB(ctx).GetTeam(ctx, uuid.Nil, merged.Name); err == nil && other.TeamID != existing.TeamID {
			return ErrAlreadyExists.Msg("Team name '" + merged.Name + "' is already in use.")
		}
	}
	if merged.DomainID != nil && (!existing.DomainID.Valid || *merged.DomainID != existing.DomainID.UUID) {
		if _, err := db.DB(ctx).GetDataDomain(ctx, *merged.DomainID, ""); err != nil {
			if err.Is(dberror.ErrNotFound) {
				return ErrInvalidRequest.Msg("data domain does not exist")
			}
			return err
		}
	}

	team := merged.toModel()
	team.TeamID = existing.TeamID
	team.CreatedBy = existing.CreatedBy
	team.CreatedAt = existing.CreatedAt
	team.UpdatedBy = stewcommon.UserContextFromContext(ctx).DisplayName()

	if err := db.DB(ctx).UpdateTeam(ctx, team); err != nil {
		if err.Is(dberror.ErrNotFound) {
			return ErrTeamNotFound
		}
		return err
	}

	log.Ctx(ctx).Info().Str("name", team.Name).Str("team_id", team.TeamID.String()).Msg("updated team")
	tr.manager = &teamManager{team: *team}
	// The name in the request path may no longer match after a rename.
	tr.requestContext.ObjectID = team.TeamID
	tr.requestContext.ObjectName = ""
	return nil
}

func (tr *teamResource) Delete(ctx context.Context) apperrors.Error {
	teamID := tr.requestContext.ObjectID
	if teamID == uuid.Nil {
		existing, dbErr := db.DB(ctx).GetTeam(ctx, uuid.Nil, tr.requestContext.ObjectName)
		if dbErr != nil {
			if dbErr.Is(dberror.ErrNotFound) {
				return ErrTeamNotFound
			}
			return dbErr
		}
		teamID = existing.TeamID
	}
	err := db.DB(ctx).DeleteTeam(ctx, teamID)
	if err != nil {
		if err.Is(dberror.ErrNotFound) {
			return ErrTeamNotFound
		}
		return err
	}
	log.Ctx(ctx).Info().Str("team_id", teamID.String()).Msg("deleted team")
	return nil
}

// NewTeamHandler creates a KindHandler for teams
func NewTeamHandler(ctx context.Context, requestContext RequestContext) (schemamanager.KindHandler, apperrors.Error) {
	return &teamResource{
		requestContext: requestContext,
	}, nil
}

// ListTeamSummaries returns the compact team listing.
func ListTeamSummaries(ctx context.Context) ([]byte, apperrors.Error) {
	teams, err := db.DB(ctx).ListTeams(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]TeamSummary, 0, len(teams))
	for _, t := range teams {
		s := TeamSummary{
			ID:          t.TeamID,
			Name:        t.Name,
			Title:       t.Title,
			MemberCount: len(teamMembers(t)),
		}
		if t.DomainID.Valid {
			id := t.DomainID.UUID
			s.DomainID = &id
		}
		summaries = append(summaries, s)
	}

	jsonData, errJson := json.Marshal(summaries)
	if errJson != nil {
		return nil, ErrUnableToLoadObject
	}
	return jsonData, nil
}

func saveTeamMembers(ctx context.Context, team *models.Team, members []teamMemberSchema) apperrors.Error {
	team.Members = jsonbFrom(members)
	team.UpdatedBy = stewcommon.UserContextFromContext(ctx).DisplayName()
	if err := db.DB(ctx).UpdateTeam(ctx, team); err != nil {
		if err.Is(dberror.ErrNotFound) {
			return ErrTeamNotFound
		}
		return err
	}
	return nil
}

// AddTeamMember appends a member to the team roster. Duplicate identifiers
// are rejected.
func AddTeamMember(ctx context.Context, teamID uuid.UUID, memberJSON []byte) ([]byte, apperrors.Error) {
	team, dbErr := db.DB(ctx).GetTeam(ctx, teamID, "")
	if dbErr != nil {
		if dbErr.Is(dberror.ErrNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, dbErr
	}

	member := teamMemberSchema{}
	if err := json.Unmarshal(memberJSON, &member); err != nil {
		return nil, ErrInvalidSchema.Err(err)
	}
	wrapper := &teamSchema{Name: team.Name, Members: []teamMemberSchema{member}}
	if validationErrors := wrapper.Validate(); validationErrors != nil {
		return nil, ErrInvalidSchema.Err(validationErrors)
	}

	members := teamMembers(team)
	for _, m := range members {
		if m.MemberIdentifier == member.MemberIdentifier {
			return nil, ErrAlreadyExists.Msg("Member '" + member.MemberIdentifier + "' is already in team '" + team.Name + "'.")
		}
	}
	members = append(members, member)

	if err := saveTeamMembers(ctx, team, members); err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("team", team.Name).Str("member", member.MemberIdentifier).Msg("added team member")

	jsonData, errJson := json.Marshal(member)
	if errJson != nil {
		return nil, ErrUnableToLoadObject
	}
	return jsonData, nil
}

// UpdateTeamMember changes the app role override of an existing member.
func UpdateTeamMember(ctx context.Context, teamID uuid.UUID, identifier string, memberJSON []byte) ([]byte, apperrors.Error) {
	team, dbErr := db.DB(ctx).GetTeam(ctx, teamID, "")
	if dbErr != nil {
		if dbErr.Is(dberror.ErrNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, dbErr
	}

	update := struct {
		AppRoleOverride *string `json:"app_role_override"`
	}{}
	if err := json.Unmarshal(memberJSON, &update); err != nil {
		return nil, ErrInvalidSchema.Err(err)
	}

	members := teamMembers(team)
	for i := range members {
		if members[i].MemberIdentifier != identifier {
			continue
		}
		if update.AppRoleOverride != nil {
			members[i].AppRoleOverride = *update.AppRoleOverride
		}
		if err := saveTeamMembers(ctx, team, members); err != nil {
			return nil, err
		}
		jsonData, errJson := json.Marshal(members[i])
		if errJson != nil {
			return nil, ErrUnableToLoadObject
		}
		return jsonData, nil
	}

	return nil, ErrObjectNotFound.Msg("Member '" + identifier + "' not found in team '" + team.Name + "'.")
}

// RemoveTeamMember removes a member from the team roster by identifier.
func RemoveTeamMember(ctx context.Context, teamID uuid.UUID, identifier string) apperrors.Error {
	team, dbErr := db.DB(ctx).GetTeam(ctx, teamID, "")
	if dbErr != nil {
		if dbErr.Is(dberror.ErrNotFound) {
			return ErrTeamNotFound
		}
		return dbErr
	}

	members := teamMembers(team)
	remaining := make([]teamMemberSchema, 0, len(members))
	for _, m := range members {
		if m.MemberIdentifier != identifier {
			remaining = append(remaining, m)
		}
	}
	if len(remaining) == len(members) {
		return ErrObjectNotFound.Msg("Member '" + identifier + "' not found in team '" + team.Name + "'.")
	}

	if err := saveTeamMembers(ctx, team, remaining); err != nil {
		return err
	}
	log.Ctx(ctx).Info().Str("team", team.Name).Str("member", identifier).Msg("removed team member")
	return nil
}
