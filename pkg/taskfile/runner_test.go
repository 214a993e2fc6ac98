package taskfile

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morlinbrot/pngstash/pkg/ctxlog"
)

func testRunCtx() (context.Context, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	logger := zerolog.New(buf)
	return ctxlog.WithLogger(context.Background(), &logger), buf
}

func loadRecipe(t *testing.T, dir, content, name string) (*File, *Recipe) {
	t.Helper()

	file, err := Load(writeRunfile(t, dir, content), testVersion)
	require.NoError(t, err)

	recipe, ok := file.Lookup(name)
	require.True(t, ok)
	return file, recipe
}

func TestRunExecutesStatements(t *testing.T) {
	dir := t.TempDir()
	file, recipe := loadRecipe(t, dir, `recipes:
  - name: hello
    run: |
      echo one > first.txt
      echo two > second.txt
`, "hello")

	ctx, logs := testRunCtx()
	require.NoError(t, Run(ctx, file, recipe, RunOptions{}))

	first, err := os.ReadFile(filepath.Join(dir, "first.txt"))
	require.NoError(t, err)
	assert.Equal(t, "one\n", string(first))

	second, err := os.ReadFile(filepath.Join(dir, "second.txt"))
	require.NoError(t, err)
	assert.Equal(t, "two\n", string(second))

	assert.Contains(t, logs.String(), `"recipe":"hello"`)
	assert.Contains(t, logs.String(), `"command":true`)
}

func TestRunPropagatesExitStatus(t *testing.T) {
	dir := t.TempDir()
	file, recipe := loadRecipe(t, dir, `recipes:
  - name: fail
    run: exit 7
`, "fail")

	ctx, _ := testRunCtx()
	err := Run(ctx, file, recipe, RunOptions{})
	require.Error(t, err)
	assert.Equal(t, 7, ExitCode(err))
}

func TestRunStopsAfterFailure(t *testing.T) {
	dir := t.TempDir()
	file, recipe := loadRecipe(t, dir, `recipes:
  - name: fail
    run: |
      echo one > first.txt
      exit 3
      echo two > second.txt
`, "fail")

	ctx, _ := testRunCtx()
	err := Run(ctx, file, recipe, RunOptions{})
	require.Error(t, err)
	assert.Equal(t, 3, ExitCode(err))

	_, err = os.Stat(filepath.Join(dir, "first.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "second.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunStopsAfterCleanExit(t *testing.T) {
	dir := t.TempDir()
	file, recipe := loadRecipe(t, dir, `recipes:
  - name: quit
    run: |
      exit 0
      echo nope > after.txt
`, "quit")

	ctx, _ := testRunCtx()
	require.NoError(t, Run(ctx, file, recipe, RunOptions{}))

	_, err := os.Stat(filepath.Join(dir, "after.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunEnvPrecedence(t *testing.T) {
	t.Setenv("A", "process")

	dir := t.TempDir()
	file, recipe := loadRecipe(t, dir, `env:
  A: file
  B: file
recipes:
  - name: show
    env:
      B: recipe
      C: recipe
    run: printf '%s %s %s %s' "$A" "$B" "$C" "$D" > env.txt
`, "show")

	ctx, _ := testRunCtx()
	opts := RunOptions{ExtraEnv: map[string]string{"C": "extra", "D": "extra"}}
	require.NoError(t, Run(ctx, file, recipe, opts))

	out, err := os.ReadFile(filepath.Join(dir, "env.txt"))
	require.NoError(t, err)
	assert.Equal(t, "file recipe extra extra", string(out))
}

func TestRunDryRun(t *testing.T) {
	dir := t.TempDir()
	file, recipe := loadRecipe(t, dir, `recipes:
  - name: dry
    run: echo hi > dry.txt
`, "dry")

	ctx, logs := testRunCtx()
	require.NoError(t, Run(ctx, file, recipe, RunOptions{DryRun: true}))

	_, err := os.Stat(filepath.Join(dir, "dry.txt"))
	assert.True(t, os.IsNotExist(err))

	// The command still shows up in the log.
	assert.Contains(t, logs.String(), `"command":true`)
	assert.Contains(t, logs.String(), "dry.txt")
}

func TestRunRecipeDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))

	file, recipe := loadRecipe(t, dir, `recipes:
  - name: inside
    dir: sub
    run: echo x > marker.txt
`, "inside")

	ctx, _ := testRunCtx()
	require.NoError(t, Run(ctx, file, recipe, RunOptions{}))

	_, err := os.Stat(filepath.Join(dir, "sub", "marker.txt"))
	assert.NoError(t, err)
}

func TestRunWritesToGivenStdout(t *testing.T) {
	dir := t.TempDir()
	file, recipe := loadRecipe(t, dir, `recipes:
  - name: speak
    run: echo visible
`, "speak")

	ctx, _ := testRunCtx()
	stdout := new(bytes.Buffer)
	require.NoError(t, Run(ctx, file, recipe, RunOptions{Stdout: stdout}))
	assert.Equal(t, "visible\n", stdout.String())
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(eris.New("boom")))
}
