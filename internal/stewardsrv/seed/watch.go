package seed

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/config"
)

// debounceWindow batches file events so one editor save, often several
// writes plus a rename, triggers a single reload.
const debounceWindow = 500 * time.Millisecond

// Watcher re-applies seed files when they change on disk. Intended for demo
// setups where editing a seed YAML should show up without a restart.
type Watcher struct {
	fsw      *fsnotify.Watcher
	onReload func()
	done     chan struct{}
	stopOnce sync.Once
}

// Watch starts watching the configured seed directory. onReload runs after
// each successful reapply so the caller can refresh anything derived from
// the stores, such as the search index. Returns a nil watcher when watching
// is not enabled in config.
func Watch(ctx context.Context, onReload func()) (*Watcher, error) {
	seedCfg := config.Config().Seed
	if seedCfg.Dir == "" || !seedCfg.Watch {
		return nil, nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(seedCfg.Dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{fsw: fsw, onReload: onReload, done: make(chan struct{})}
	go w.run(ctx)
	log.Ctx(ctx).Info().Str("dir", seedCfg.Dir).Msg("watching seed directory")
	return w, nil
}

// Stop stops the watcher. Safe to call more than once and on a nil receiver.
func (w *Watcher) Stop() {
	if w == nil {
		return
	}
	w.stopOnce.Do(func() {
		close(w.done)
		w.fsw.Close()
	})
}

func (w *Watcher) run(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, ".yaml") {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerC = timer.C
			} else {
				timer.Reset(debounceWindow)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Ctx(ctx).Warn().Err(err).Msg("seed watcher error")
		case <-timerC:
			timer = nil
			timerC = nil
			w.reload(ctx)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	log.Ctx(ctx).Info().Msg("seed files changed, reapplying")
	if err := Reapply(ctx); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("seed reapply failed")
		return
	}
	if w.onReload != nil {
		w.onReload()
	}
}
