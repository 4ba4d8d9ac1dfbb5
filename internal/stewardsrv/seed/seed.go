// Package seed loads demo documents into empty stores at startup. Seed files
// are YAML, one file per entity, applied in dependency order so documents can
// reference earlier entities by name. A store that already holds rows is left
// untouched, so restarts never duplicate or clobber user data.
package seed

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/stewarddata/steward-internal/internal/common/apperrors"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/assetmanager"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/compliance"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/config"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/notify"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/stewcommon"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"sigs.k8s.io/yaml"
)

// Seed file names under the configured directory. Each file holds either a
// bare list of documents or an object wrapping the list under the entity key.
const (
	teamsFile         = "teams.yaml"
	domainsFile       = "data_domains.yaml"
	productsFile      = "data_products.yaml"
	policiesFile      = "compliance.yaml"
	notificationsFile = "notifications.yaml"
)

// seedIdentity is recorded as the creator of seeded objects.
const seedIdentity = "system@startup"

// nameLink records a by-name reference stripped from a seed document,
// resolved once every entity file has been applied.
type nameLink struct {
	from string
	to   string
}

type pendingLinks struct {
	teamDomains   []nameLink
	domainParents []nameLink
	domainOwners  []nameLink
}

// Load seeds every empty store from the configured seed directory. Stores
// that already hold rows are skipped, as are missing files; neither is an
// error. A document that fails validation is logged and skipped so one bad
// entry cannot block the rest of the file.
func Load(ctx context.Context) apperrors.Error {
	return run(ctx, true)
}

// Reapply loads the seed files without the empty-store gate. New documents
// are created; documents whose identifier or name already exists are skipped.
// Used by the seed watcher after a file changes on disk.
func Reapply(ctx context.Context) apperrors.Error {
	return run(ctx, false)
}

func run(ctx context.Context, onlyWhenEmpty bool) apperrors.Error {
	dir := config.Config().Seed.Dir
	if dir == "" {
		log.Ctx(ctx).Debug().Msg("no seed directory configured")
		return nil
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		log.Ctx(ctx).Warn().Str("dir", dir).Msg("seed directory not found, nothing to load")
		return nil
	}

	ctx, err := db.ConnCtx(ctx)
	if err != nil {
		return apperrors.New("unable to acquire database connection for seed load").Err(err)
	}
	defer db.DB(ctx).Close(ctx)
	ctx = stewcommon.SetUserContext(ctx, &stewcommon.UserContext{Username: seedIdentity})

	pending := &pendingLinks{}
	loadTeams(ctx, dir, onlyWhenEmpty, pending)
	loadDomains(ctx, dir, onlyWhenEmpty, pending)
	resolveLinks(ctx, pending)
	loadProducts(ctx, dir, onlyWhenEmpty)
	loadPolicies(ctx, dir, onlyWhenEmpty)
	loadNotifications(ctx, dir, onlyWhenEmpty)
	return nil
}

// readSeedItems reads one seed file and returns its documents as JSON. The
// file may hold a bare list or an object wrapping the list under key. A
// missing file yields no items; a malformed one is logged and skipped.
func readSeedItems(ctx context.Context, path string, key string) []gjson.Result {
	content, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Ctx(ctx).Warn().Err(err).Str("file", path).Msg("unable to read seed file")
		}
		return nil
	}

	jsonData, err := yaml.YAMLToJSON(content)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("file", path).Msg("seed file is not valid YAML")
		return nil
	}

	parsed := gjson.ParseBytes(jsonData)
	if parsed.IsObject() {
		parsed = parsed.Get(key)
	}
	if !parsed.IsArray() {
		log.Ctx(ctx).Warn().Str("file", path).Str("key", key).Msg("seed file holds no document list")
		return nil
	}
	return parsed.Array()
}

// stripField removes a seed-only field from a document and returns its value.
// Seed files reference other entities by name in fields the API does not
// accept; the loader resolves those references after every file has loaded.
func stripField(doc []byte, field string) ([]byte, string) {
	value := gjson.GetBytes(doc, field).String()
	if value != "" {
		doc, _ = sjson.DeleteBytes(doc, field)
	}
	return doc, value
}

func logSeedSkip(ctx context.Context, err apperrors.Error, kind string, name string) {
	if err.Is(assetmanager.ErrAlreadyExists) || err.Is(compliance.ErrPolicyAlreadyExists) {
		log.Ctx(ctx).Debug().Str(kind, name).Msg("seed document already exists")
		return
	}
	log.Ctx(ctx).Warn().Err(err).Str(kind, name).Msg("unable to create seed " + kind)
}

func loadTeams(ctx context.Context, dir string, onlyWhenEmpty bool, pending *pendingLinks) {
	items := readSeedItems(ctx, filepath.Join(dir, teamsFile), "teams")
	if len(items) == 0 {
		return
	}
	if onlyWhenEmpty {
		existing, err := db.DB(ctx).ListTeams(ctx)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("unable to check teams before seeding")
			return
		}
		if len(existing) > 0 {
			log.Ctx(ctx).Info().Msg("teams already present, skipping seed file")
			return
		}
	}

	created := 0
	for _, item := range items {
		name := item.Get("name").String()
		doc, domainName := stripField([]byte(item.Raw), "domain")

		manager, err := assetmanager.NewTeamManager(ctx, doc)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("team", name).Msg("skipping invalid seed team")
			continue
		}
		if err := manager.Save(ctx); err != nil {
			logSeedSkip(ctx, err, "team", name)
			continue
		}
		if domainName != "" {
			pending.teamDomains = append(pending.teamDomains, nameLink{from: name, to: domainName})
		}
		created++
	}
	log.Ctx(ctx).Info().Int("created", created).Msg("seeded teams")
}

func loadDomains(ctx context.Context, dir string, onlyWhenEmpty bool, pending *pendingLinks) {
	items := readSeedItems(ctx, filepath.Join(dir, domainsFile), "domains")
	if len(items) == 0 {
		return
	}
	if onlyWhenEmpty {
		existing, err := db.DB(ctx).ListDataDomains(ctx)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("unable to check data domains before seeding")
			return
		}
		if len(existing) > 0 {
			log.Ctx(ctx).Info().Msg("data domains already present, skipping seed file")
			return
		}
	}

	created := 0
	for _, item := range items {
		name := item.Get("name").String()
		doc, parentName := stripField([]byte(item.Raw), "parent")
		doc, ownerName := stripField(doc, "owner_team")

		manager, err := assetmanager.NewDataDomainManager(ctx, doc)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("domain", name).Msg("skipping invalid seed domain")
			continue
		}
		if err := manager.Save(ctx); err != nil {
			logSeedSkip(ctx, err, "domain", name)
			continue
		}
		if parentName != "" {
			pending.domainParents = append(pending.domainParents, nameLink{from: name, to: parentName})
		}
		if ownerName != "" {
			pending.domainOwners = append(pending.domainOwners, nameLink{from: name, to: ownerName})
		}
		created++
	}
	log.Ctx(ctx).Info().Int("created", created).Msg("seeded data domains")
}

// resolveLinks applies the by-name references collected while loading. Each
// reference becomes a partial update against the created object, so a bad
// reference spoils only itself.
func resolveLinks(ctx context.Context, pending *pendingLinks) {
	for _, l := range pending.domainParents {
		parent, err := assetmanager.LoadDataDomainManager(ctx, uuid.Nil, l.to)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("domain", l.from).Str("parent", l.to).Msg("seed parent domain not found")
			continue
		}
		patchDomain(ctx, l.from, "parent_id", parent.ID())
	}
	for _, l := range pending.domainOwners {
		team, err := assetmanager.LoadTeamManager(ctx, uuid.Nil, l.to)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("domain", l.from).Str("owner_team", l.to).Msg("seed owner team not found")
			continue
		}
		patchDomain(ctx, l.from, "owner_team_id", team.ID())
	}
	for _, l := range pending.teamDomains {
		domain, err := assetmanager.LoadDataDomainManager(ctx, uuid.Nil, l.to)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("team", l.from).Str("domain", l.to).Msg("seed team domain not found")
			continue
		}
		patchTeam(ctx, l.from, "domain_id", domain.ID())
	}
}

func patchDomain(ctx context.Context, name string, field string, id uuid.UUID) {
	handler, err := assetmanager.NewDataDomainHandler(ctx, assetmanager.RequestContext{ObjectName: name})
	if err != nil {
		return
	}
	patch, _ := sjson.SetBytes([]byte(`{}`), field, id.String())
	if err := handler.Update(ctx, patch); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("domain", name).Str(field, id.String()).Msg("unable to link seed domain")
	}
}

func patchTeam(ctx context.Context, name string, field string, id uuid.UUID) {
	handler, err := assetmanager.NewTeamHandler(ctx, assetmanager.RequestContext{ObjectName: name})
	if err != nil {
		return
	}
	patch, _ := sjson.SetBytes([]byte(`{}`), field, id.String())
	if err := handler.Update(ctx, patch); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("team", name).Str(field, id.String()).Msg("unable to link seed team")
	}
}

func loadProducts(ctx context.Context, dir string, onlyWhenEmpty bool) {
	path := filepath.Join(dir, productsFile)
	content, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Ctx(ctx).Warn().Err(err).Str("file", path).Msg("unable to read seed file")
		}
		return
	}
	if onlyWhenEmpty {
		existing, dbErr := db.DB(ctx).ListDataProducts(ctx)
		if dbErr != nil {
			log.Ctx(ctx).Error().Err(dbErr).Msg("unable to check data products before seeding")
			return
		}
		if len(existing) > 0 {
			log.Ctx(ctx).Info().Msg("data products already present, skipping seed file")
			return
		}
	}

	result, uploadErr := assetmanager.UploadDataProducts(ctx, productsFile, content)
	if uploadErr != nil {
		log.Ctx(ctx).Warn().Err(uploadErr).Str("file", path).Msg("unable to load seed data products")
		return
	}
	for _, e := range result.Errors {
		// Re-applied files mostly hit existing IDs; keep those quiet.
		if strings.Contains(e.Error, "already exists") {
			log.Ctx(ctx).Debug().Str("id", e.ID).Msg("seed document already exists")
			continue
		}
		log.Ctx(ctx).Warn().Str("id", e.ID).Str("error", e.Error).Msg("skipped seed data product")
	}
	log.Ctx(ctx).Info().Int("created", len(result.Created)).Msg("seeded data products")
}

func loadPolicies(ctx context.Context, dir string, onlyWhenEmpty bool) {
	items := readSeedItems(ctx, filepath.Join(dir, policiesFile), "policies")
	if len(items) == 0 {
		return
	}
	if onlyWhenEmpty {
		existing, err := db.DB(ctx).ListCompliancePolicies(ctx, false)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("unable to check compliance policies before seeding")
			return
		}
		if len(existing) > 0 {
			log.Ctx(ctx).Info().Msg("compliance policies already present, skipping seed file")
			return
		}
	}

	created := 0
	for _, item := range items {
		name := item.Get("name").String()
		if _, err := compliance.CreatePolicy(ctx, []byte(item.Raw)); err != nil {
			logSeedSkip(ctx, err, "policy", name)
			continue
		}
		created++
	}
	log.Ctx(ctx).Info().Int("created", created).Msg("seeded compliance policies")
}

func loadNotifications(ctx context.Context, dir string, onlyWhenEmpty bool) {
	items := readSeedItems(ctx, filepath.Join(dir, notificationsFile), "notifications")
	if len(items) == 0 {
		return
	}
	if onlyWhenEmpty {
		count, err := db.DB(ctx).CountNotifications(ctx)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("unable to check notifications before seeding")
			return
		}
		if count > 0 {
			log.Ctx(ctx).Info().Msg("notifications already present, skipping seed file")
			return
		}
	}

	created := 0
	for _, item := range items {
		title := item.Get("title").String()
		if _, err := notify.CreateFromJson(ctx, []byte(item.Raw)); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("notification", title).Msg("skipping invalid seed notification")
			continue
		}
		created++
	}
	log.Ctx(ctx).Info().Int("created", created).Msg("seeded notifications")
}
