package taskfile

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const watchRunfile = `recipes:
  - name: record
    run: echo ran >> runs.txt
    watch:
      paths:
        - "src/**"
`

func startWatch(t *testing.T) (string, context.CancelFunc, chan error) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0755))
	file, recipe := loadRecipe(t, dir, watchRunfile, "record")

	ctx, _ := testRunCtx()
	ctx, cancel := context.WithCancel(ctx)

	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, file, recipe, WatchOptions{Lull: 50 * time.Millisecond})
	}()

	return dir, cancel, done
}

func waitForRuns(t *testing.T, dir string, count int) {
	t.Helper()

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(filepath.Join(dir, "runs.txt"))
		return err == nil && strings.Count(string(data), "ran") >= count
	}, 10*time.Second, 25*time.Millisecond)
}

func stopWatch(t *testing.T, cancel context.CancelFunc, done chan error) {
	t.Helper()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatchRunsOnceAndStopsOnCancel(t *testing.T) {
	dir, cancel, done := startWatch(t)

	waitForRuns(t, dir, 1)
	stopWatch(t, cancel, done)
}

func TestWatchClearsTerminal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0755))
	file, recipe := loadRecipe(t, dir, watchRunfile, "record")

	ctx, _ := testRunCtx()
	ctx, cancel := context.WithCancel(ctx)

	stdout := new(bytes.Buffer)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, file, recipe, WatchOptions{
			RunOptions: RunOptions{Stdout: stdout},
			Lull:       50 * time.Millisecond,
			Clear:      true,
		})
	}()

	waitForRuns(t, dir, 1)
	stopWatch(t, cancel, done)

	assert.Contains(t, stdout.String(), "\x1b[2J\x1b[H")
}

func TestWatchRerunsOnChange(t *testing.T) {
	dir, cancel, done := startWatch(t)
	defer stopWatch(t, cancel, done)

	waitForRuns(t, dir, 1)

	// Give the initial run a moment to settle, then trigger a change.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "main.go"), []byte("package main\n"), 0644))

	waitForRuns(t, dir, 2)
}
