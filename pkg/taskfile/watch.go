package taskfile

import (
	"context"
	"os"
	"time"

	"github.com/aidarkhanov/nanoid"
	"github.com/cortesi/moddwatch"
	"github.com/rotisserie/eris"

	"github.com/morlinbrot/pngstash/pkg/ctxlog"
	"github.com/morlinbrot/pngstash/pkg/term"
)

// defaultLull batches rapid change bursts (editor save storms, branch
// switches) into a single re-run.
const defaultLull = 300 * time.Millisecond

var defaultWatchPatterns = []string{"**"}

var defaultWatchExcludes = []string{
	"**/.git/**",
	"**/*.swp",
	"**/*.swx",
	"**/*~",
	// vim probes directories with this file before writing
	"**/4913",
}

// WatchOptions adjust watch mode.
type WatchOptions struct {
	RunOptions

	// Lull is how long the file system has to stay quiet before a change
	// batch is delivered. Zero means the default.
	Lull time.Duration
	// Clear wipes the terminal before every run.
	Clear bool
}

// Watch runs the recipe once, then re-runs it whenever a watched file
// changes. Failing runs are reported and watching continues. Watch blocks
// until ctx is canceled, which is the regular way to leave watch mode.
func Watch(ctx context.Context, file *File, recipe *Recipe, opts WatchOptions) error {
	logger := ctxlog.FromContext(ctx)

	lull := opts.Lull
	if lull <= 0 {
		lull = defaultLull
	}

	patterns := defaultWatchPatterns
	excludes := defaultWatchExcludes
	if recipe.Watch != nil {
		if len(recipe.Watch.Paths) > 0 {
			patterns = recipe.Watch.Paths
		}
		if len(recipe.Watch.Exclude) > 0 {
			excludes = append(append([]string{}, defaultWatchExcludes...), recipe.Watch.Exclude...)
		}
	}

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	root := file.Dir()
	changes := make(chan *moddwatch.Mod, 1)
	watcher, err := moddwatch.Watch(root, patterns, excludes, lull, changes)
	if err != nil {
		return eris.Wrapf(err, "cannot watch %s", root)
	}
	defer watcher.Stop()

	runOnce := func(changed []string) {
		if opts.Clear {
			term.Clear(stdout)
		}

		cycleLogger := logger.With().Str("run", nanoid.New()).Logger()
		cctx := ctxlog.WithLogger(ctx, &cycleLogger)

		if len(changed) > 0 {
			cycleLogger.Info().
				Str("recipe", recipe.Name).
				Strs("changed", changed).
				Msgf("%d files changed, running %s", len(changed), recipe.Name)
		}

		err := Run(cctx, file, recipe, opts.RunOptions)
		if err != nil {
			cycleLogger.Error().Err(err).
				Str("recipe", recipe.Name).
				Msgf("recipe %s failed", recipe.Name)
			return
		}

		cycleLogger.Info().
			Str("recipe", recipe.Name).
			Msg("waiting for changes")
	}

	runOnce(nil)

	for {
		select {
		case <-ctx.Done():
			return nil
		case mod := <-changes:
			// The watcher hands out nil when it stops.
			if mod == nil {
				return nil
			}
			if mod.Empty() {
				continue
			}

			runOnce(mod.All())
		}
	}
}
