package taskfile

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/morlinbrot/pngstash/pkg/ctxlog"
)

// RunOptions adjust a single recipe run.
type RunOptions struct {
	// DryRun prints the commands without executing them.
	DryRun bool
	// ExtraEnv wins over the recipe env, the runfile env and the process
	// environment.
	ExtraEnv map[string]string
	// Stdout and Stderr default to the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes the recipe's body. The body is parsed as POSIX shell;
// statements run sequentially and the first failing statement aborts the
// run, carrying the shell's exit status. An `exit` in the body ends the
// recipe.
func Run(ctx context.Context, file *File, recipe *Recipe, opts RunOptions) error {
	logger := ctxlog.FromContext(ctx)

	dir := file.Dir()
	if recipe.Dir != "" {
		dir = filepath.Join(dir, recipe.Dir)
	}

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(recipeEnviron(file, recipe, opts.ExtraEnv)),
		interp.StdIO(nil, stdout, stderr),
		interp.Params("-e"),
	)
	if err != nil {
		return eris.Wrap(err, "cannot initialize the shell interpreter")
	}

	parser := syntax.NewParser()
	prog, err := parser.Parse(strings.NewReader(recipe.Run), recipe.Name)
	if err != nil {
		return eris.Wrapf(err, "cannot parse the commands of recipe %s", recipe.Name)
	}

	printer := syntax.NewPrinter(
		syntax.Minify(true),
	)
	strBuffer := strings.Builder{}

	for _, stmt := range prog.Stmts {
		strBuffer.Reset()
		printer.Print(&strBuffer, stmt)
		logger.Info().
			Str("recipe", recipe.Name).
			Bool("command", true).
			Msg(strBuffer.String())

		if opts.DryRun {
			continue
		}

		// Run errors carry the exit status, pass them through unwrapped.
		err = runner.Run(ctx, stmt)
		if err != nil {
			return err
		}

		if runner.Exited() {
			return nil
		}
	}

	return nil
}

// ExitCode maps a Run error to the process exit code: the shell's status
// when the error carries one, 1 for everything else, 0 for nil.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	status, ok := interp.IsExitStatus(err)
	if ok {
		return int(status)
	}

	return 1
}

// recipeEnviron layers the environments: process env first, then the
// runfile env, the recipe env and finally any extra overrides.
func recipeEnviron(file *File, recipe *Recipe, extra map[string]string) expand.Environ {
	envVars := os.Environ()

	for name, value := range file.Env {
		envVars = append(envVars, fmt.Sprintf("%s=%s", name, value))
	}

	for name, value := range recipe.Env {
		envVars = append(envVars, fmt.Sprintf("%s=%s", name, value))
	}

	for name, value := range extra {
		envVars = append(envVars, fmt.Sprintf("%s=%s", name, value))
	}

	return expand.ListEnviron(envVars...)
}
