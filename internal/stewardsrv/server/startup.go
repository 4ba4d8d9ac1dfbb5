package server

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/assetmanager"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/commander"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/config"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/notify"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/search"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/seed"
)

// Startup runs the boot tasks after config is loaded: demo seeding, the
// warehouse probe, and the search index. Failures are logged and the server
// comes up anyway; a degraded catalog beats no catalog.
func Startup(ctx context.Context) *seed.Watcher {
	if err := seed.Load(ctx); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("seed load failed")
	}

	if config.Config().Warehouse.ProbeOnStart {
		if err := commander.Default().Probe(ctx); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("warehouse is not reachable")
		}
	}

	sm := search.Default()
	sm.Register("data-products", assetmanager.ProductSearchSource())
	sm.Register("data-domains", assetmanager.DomainSearchSource())
	sm.Register("teams", assetmanager.TeamSearchSource())
	if config.Config().Search.RebuildOnStart {
		sm.BuildIndex(ctx)
	}

	watcher, err := seed.Watch(ctx, func() {
		search.Default().RebuildAsync()
	})
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("unable to watch seed directory")
	}
	return watcher
}

// Shutdown drains background work before the process exits.
func Shutdown(ctx context.Context, watcher *seed.Watcher) {
	log.Ctx(ctx).Info().Msg("draining background tasks")
	watcher.Stop()
	notify.Streams().Close()
	assetmanager.WaitForGenieSpaces()
	search.Default().WaitForRebuilds()
}
