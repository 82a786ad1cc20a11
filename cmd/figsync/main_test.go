package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) {
	t.Helper()
	t.Setenv("FIGSYNC_CONFIG", "")
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestExportThenUpdate(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "landing.md", "# Welcome\n\nFirst paragraph.\n")
	csvPath := filepath.Join(dir, "copy.csv")

	run(t, "export", doc, "--out", csvPath)
	exported := readFile(t, csvPath)
	require.Contains(t, exported, "First paragraph.")

	edited := strings.Replace(exported, "First paragraph.", "Erster Absatz.", 1)
	require.NoError(t, os.WriteFile(csvPath, []byte(edited), 0o644))

	out := filepath.Join(dir, "landing.json")
	run(t, "update", doc, csvPath, "--out", out)
	scene := readFile(t, out)
	assert.Contains(t, scene, "Erster Absatz.")
	assert.NotContains(t, scene, "First paragraph.")
}

func TestTableCreateAndRead(t *testing.T) {
	dir := t.TempDir()
	in := "name,price\nTea,3\n"
	csvPath := writeFile(t, dir, "prices.csv", in)
	out := filepath.Join(dir, "prices.json")

	run(t, "table", "create", csvPath, "--name", "Prices", "--out", out)
	doc, err := loadDocument(out)
	require.NoError(t, err)
	require.Len(t, doc.Pages[0].Nodes, 1)

	back := filepath.Join(dir, "back.csv")
	run(t, "table", "read", out, doc.Pages[0].Nodes[0].NodeID(), "--out", back)
	assert.Equal(t, in, readFile(t, back))
}

func TestWatchFile_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "copy.csv", "id,characters\n")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, path, 50*time.Millisecond, func() error {
			calls.Add(1)
			return nil
		}, log)
	}()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("id,characters\n$1:2,x\n"), 0o644))
	}
	writeFile(t, dir, "other.csv", "ignored")

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 5*time.Second, 20*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
