// Command task parses the nearest tasks.yml runfile and executes the given
// recipes. Without arguments it lists the available recipes.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/morlinbrot/pngstash/pkg/config"
	"github.com/morlinbrot/pngstash/pkg/ctxlog"
	"github.com/morlinbrot/pngstash/pkg/taskfile"
	"github.com/morlinbrot/pngstash/pkg/term"
)

// Version is overridden at build time. Runfiles can pin a minimum version
// through their requires field.
var Version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:   "task [flags] [recipe...]",
	Short: "Runs recipes from the nearest tasks.yml",
	Long: `This command parses the first tasks.yml file it finds (walking up from the
current directory) and executes the given recipes. Recipes can be addressed
by name or alias. Without arguments, the available recipes are listed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, err := cmd.Flags().GetBool("dry")
		if err != nil {
			return err
		}

		watchFlag, err := cmd.Flags().GetBool("watch")
		if err != nil {
			return err
		}

		noWatch, err := cmd.Flags().GetBool("no-watch")
		if err != nil {
			return err
		}

		noClear, err := cmd.Flags().GetBool("no-clear")
		if err != nil {
			return err
		}

		listOnly, err := cmd.Flags().GetBool("list")
		if err != nil {
			return err
		}

		fileFlag, err := cmd.Flags().GetString("file")
		if err != nil {
			return err
		}

		cfg, loader := config.Loader()
		if err := loader.Load(); err != nil {
			return eris.Wrap(err, "cannot load the configuration")
		}

		var logger zerolog.Logger
		if cfg.Log.JSON {
			logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		} else {
			logger = zerolog.New(term.NewConsoleWriter(os.Stderr))
		}

		if err := cfg.Validate(); err != nil {
			logger.Fatal().Err(err).Msg("Failed to parse config")
		}

		zerolog.SetGlobalLevel(cfg.LogLevel())

		ctx := ctxlog.WithLogger(context.Background(), &logger)
		ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer cancel()

		wd, err := os.Getwd()
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to retrieve the current working directory")
		}

		runfilePath := cfg.Taskfile
		if fileFlag != "" {
			runfilePath = fileFlag
		}
		if runfilePath == "" {
			runfilePath, err = taskfile.Find(wd)
			if err != nil {
				logger.Fatal().Err(err).Msg("Failed to locate the runfile")
			}
		}

		// simplify the path
		if rel, err := filepath.Rel(wd, runfilePath); err == nil {
			runfilePath = rel
		}

		file, err := taskfile.Load(runfilePath, Version)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to load the runfile")
		}

		if listOnly || len(args) == 0 {
			printRecipeList(os.Stdout, file)
			return nil
		}

		// Resolve every name up front so a typo fails before anything runs.
		recipes := make([]*taskfile.Recipe, 0, len(args))
		for _, name := range args {
			recipe, ok := file.Lookup(name)
			if !ok {
				logger.Fatal().Msgf("Recipe %s not found", name)
			}

			recipes = append(recipes, recipe)
		}

		single := len(recipes) == 1
		if watchFlag && !single {
			logger.Fatal().Msg("Watch mode works with a single recipe")
		}

		runOpts := taskfile.RunOptions{DryRun: dryRun}

		for _, recipe := range recipes {
			// Recipes with a watch spec run in watch mode by default, but
			// only when they are the sole recipe of the invocation.
			if single && !noWatch && (watchFlag || recipe.Watch != nil) {
				err = taskfile.Watch(ctx, file, recipe, taskfile.WatchOptions{
					RunOptions: runOpts,
					Lull:       cfg.Watch.Lull,
					Clear:      cfg.Watch.Clear && !noClear,
				})
				if err != nil {
					logger.Error().Err(err).Msgf("Failed to watch recipe %s", recipe.Name)
					os.Exit(1)
				}

				continue
			}

			err = taskfile.Run(ctx, file, recipe, runOpts)
			if err != nil {
				logger.Error().Err(err).Msgf("Recipe %s failed", recipe.Name)
				os.Exit(taskfile.ExitCode(err))
			}
		}

		return nil
	},
}

// printRecipeList writes the recipe overview: one aligned entry per recipe
// with its alias, its commands and its description.
func printRecipeList(w io.Writer, file *taskfile.File) {
	fmt.Fprintln(w, "Available recipes:")

	names := make([]string, 0, len(file.Recipes))
	labels := make(map[string]string, len(file.Recipes))
	maxLabelLen := 0
	for _, recipe := range file.Recipes {
		label := recipe.Name
		if recipe.Alias != "" {
			label += " (" + recipe.Alias + ")"
		}

		names = append(names, recipe.Name)
		labels[recipe.Name] = label
		if len(label) > maxLabelLen {
			maxLabelLen = len(label)
		}
	}

	sort.Strings(names)

	lineFmt := fmt.Sprintf(" * %%-%ds %%s\n", maxLabelLen+3)
	for _, name := range names {
		recipe, _ := file.Lookup(name)

		lines := strings.Split(strings.TrimRight(recipe.Run, "\n"), "\n")
		fmt.Fprintf(w, lineFmt, labels[name]+":", lines[0])
		for _, line := range lines[1:] {
			fmt.Fprintf(w, lineFmt, "", line)
		}

		if recipe.Desc != "" {
			fmt.Fprintf(w, lineFmt, "", "# "+recipe.Desc)
		}
	}
}

func init() {
	rootCmd.Version = Version
	rootCmd.Flags().BoolP("list", "l", false, "list the available recipes and exit")
	rootCmd.Flags().BoolP("watch", "w", false, "re-run the recipe whenever a watched file changes")
	rootCmd.Flags().Bool("no-watch", false, "run watch recipes only once")
	rootCmd.Flags().Bool("no-clear", false, "don't clear the terminal between watched runs")
	rootCmd.Flags().BoolP("dry", "n", false, "dry run; only print the commands, don't execute anything")
	rootCmd.Flags().StringP("file", "f", "", "use this runfile instead of searching for tasks.yml")
}

func main() {
	cobra.CheckErr(rootCmd.Execute())
}
