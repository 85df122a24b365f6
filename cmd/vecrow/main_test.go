package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecrow/blobstore"
	"github.com/hupe1980/vecrow/cmd/vecrow/config"
)

const rows = `{"key": "a", "payload": {"text": "payment failed on renewal"}}
{"key": "b", "payload": {"text": "card declined at checkout"}}
{"key": "c", "txn": 7, "payload": {"text": "refund processed successfully", "amount": 12}}
`

func execute(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args,
		"--data-dir", filepath.Join(dir, "data"),
		"--wal-dir", filepath.Join(dir, "wal"),
		"--dims", "8",
		"--index", "flat",
		"--log-level", "error",
	))

	err := cmd.Execute()
	return out.String(), err
}

func TestCLI_Lifecycle(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()

	out, err := execute(t, dir, rows, "ingest", "--flush")
	require.NoError(t, err)
	assert.Equal(t, "ingested 3 rows, clock at 4\n", out)

	out, err = execute(t, dir, "", "replay", "--dump")
	require.NoError(t, err)
	assert.Contains(t, out, "inserts:      3")
	assert.Contains(t, out, "checkpoints:  1")
	assert.Contains(t, out, "clock:        4")
	assert.Contains(t, out, "indexed:      3")
	assert.Contains(t, out, "c@[4,∞) txn=7")

	out, err = execute(t, dir, "", "query", `FIND SIMILAR "card payment" IN default TOP 2`)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)

	out, err = execute(t, dir, "", "query", "card payment", "--top", "3", "--json")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)
	assert.Contains(t, out, `"key":"`)

	out, err = execute(t, dir, "", "query", "card payment", "--roles", "informed")
	require.NoError(t, err)
	assert.Equal(t, "No results found.\n", out)

	out, err = execute(t, dir, "", "query", "card payment", "--roles", "a")
	require.NoError(t, err)
	assert.NotContains(t, out, "No results found.")

	out, err = execute(t, dir, "", "flush")
	require.NoError(t, err)
	assert.Equal(t, "nothing to flush\n", out)

	out, err = execute(t, dir, "", "inspect")
	require.NoError(t, err)
	assert.Contains(t, out, "dims:         8")
	assert.Contains(t, out, "rows:         3")
	assert.Contains(t, out, "checkpoint:   4")

	out, err = execute(t, dir, "", "inspect", "--versions")
	require.NoError(t, err)
	assert.Contains(t, out, "MANIFEST-000001.json")
}

func TestCLI_InspectSegment(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()

	_, err := execute(t, dir, rows, "ingest")
	require.NoError(t, err)

	out, err := execute(t, dir, "", "flush")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "segment "))
	id := strings.TrimSuffix(strings.Fields(out)[1], ":")

	out, err = execute(t, dir, "", "inspect", "--segment", id)
	require.NoError(t, err)
	assert.Contains(t, out, "a@[2,∞)")
	assert.Contains(t, out, "column key   values=3")
	assert.Contains(t, out, "ts=[2,4]")

	_, err = execute(t, dir, "", "inspect", "--segment", "missing")
	require.Error(t, err)
}

func TestCLI_InspectKey(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()

	_, err := execute(t, dir, rows, "ingest", "--flush")
	require.NoError(t, err)

	out, err := execute(t, dir, "", "inspect", "--key", "b")
	require.NoError(t, err)
	assert.Contains(t, out, " row 1\n")
	assert.Contains(t, out, "1 match(es), 0 of 1 segment(s) pruned")

	// Every flushed key has length 1, so the zone map excludes this one.
	out, err = execute(t, dir, "", "inspect", "--key", "ticket-42")
	require.NoError(t, err)
	assert.Equal(t, "0 match(es), 1 of 1 segment(s) pruned\n", out)
}

func TestCLI_InspectEmpty(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := execute(t, t.TempDir(), "", "inspect")
	require.NoError(t, err)
	assert.Equal(t, "no manifest\n", out)
}

func TestCLI_IngestFileWithArchive(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	archiveDir := filepath.Join(dir, "archive")

	input := filepath.Join(dir, "rows.jsonl")
	require.NoError(t, os.WriteFile(input, []byte(rows), 0o600))

	out, err := execute(t, dir, "", "ingest", input, "--flush", "--archive", archiveDir)
	require.NoError(t, err)
	assert.Contains(t, out, "ingested 3 rows")

	names, err := blobstore.NewLocalStore(archiveDir).List(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, names, "CURRENT")
	assert.Len(t, names, 4)
}

func TestCLI_IngestErrors(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := execute(t, t.TempDir(), `{"payload": {}}`, "ingest")
	require.ErrorContains(t, err, "missing key")

	_, err = execute(t, t.TempDir(), `not json`, "ingest")
	require.Error(t, err)

	_, err = execute(t, t.TempDir(), "", "ingest", "does-not-exist.jsonl")
	require.Error(t, err)
}

func TestCLI_InvalidConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := execute(t, t.TempDir(), "", "inspect", "--index", "ivf")
	require.ErrorContains(t, err, "invalid index")

	_, err = execute(t, t.TempDir(), "", "query", "x", "--roles", "owner")
	require.Error(t, err)
}

func TestCLI_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vecrow.toml"), []byte(`
segment_size_mb = 0
compression = "lz4"

[embedding]
cache_size = 16

[enrich]
provider = "heuristic"
`), 0o600))

	out, err := execute(t, dir, rows, "ingest", "--flush")
	require.NoError(t, err)
	assert.Contains(t, out, "ingested 3 rows")
}

func TestOpenArchive(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := openArchive(ctx, config.ArchiveConfig{URI: dir})
	require.NoError(t, err)
	assert.IsType(t, &blobstore.LocalStore{}, store)

	store, err = openArchive(ctx, config.ArchiveConfig{URI: "file://" + dir})
	require.NoError(t, err)
	assert.Equal(t, dir, store.(*blobstore.LocalStore).Root())

	_, err = openArchive(ctx, config.ArchiveConfig{URI: "gs://bucket/prefix"})
	require.ErrorContains(t, err, "unsupported archive scheme")

	_, err = openArchive(ctx, config.ArchiveConfig{URI: "minio://bucket/prefix"})
	require.ErrorContains(t, err, "archive.endpoint is required")
}
