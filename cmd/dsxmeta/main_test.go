package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = "../../internal/dsx/testdata/job_a.dsx"

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("REDIS_URL", "")

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestParse_JSON(t *testing.T) {
	stdout, _, err := execute(t, "parse", fixture)
	require.NoError(t, err)

	var out []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "job_a.dsx", out[0]["document"])
	assert.Equal(t, "cached", out[0]["status"])
	assert.Equal(t, "JOB_A", out[0]["data"].(map[string]any)["name"])
	assert.Contains(t, out[0], "validation")
}

func TestParse_YAML(t *testing.T) {
	stdout, _, err := execute(t, "parse", "--format", "yaml", fixture)
	require.NoError(t, err)

	assert.Contains(t, stdout, "- document: job_a.dsx")
	assert.Contains(t, stdout, "name: JOB_A")
	assert.NotContains(t, stdout, `"document"`, "keys are emitted plain")
}

func TestParse_Parallel(t *testing.T) {
	stdout, _, err := execute(t, "parse", "--parallel", "--concurrency", "2", fixture, fixture)
	require.NoError(t, err)

	var out []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Len(t, out, 2)
}

func TestParse_ReportsFailures(t *testing.T) {
	notes := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("hello"), 0o644))

	stdout, stderr, err := execute(t, "parse", fixture, notes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 documents failed")
	assert.Contains(t, stderr, "notes.txt")

	var out []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "failed", out[1]["status"])
	assert.NotEmpty(t, out[1]["error"])
}

func TestParse_RejectsUnknownFormat(t *testing.T) {
	_, _, err := execute(t, "parse", "--format", "xml", fixture)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--format")
}

func TestParse_MissingFile(t *testing.T) {
	_, _, err := execute(t, "parse", filepath.Join(t.TempDir(), "missing.dsx"))
	require.Error(t, err)
}

func TestExport_WritesBundle(t *testing.T) {
	out := filepath.Join(t.TempDir(), "bundle.zip")

	stdout, _, err := execute(t, "export", "-o", out, fixture)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Exported 1 of 1 documents")

	zr, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 1)
	assert.Equal(t, "job_a.json", zr.File[0].Name)
}

func TestCacheClear(t *testing.T) {
	stdout, _, err := execute(t, "cache", "clear")
	require.NoError(t, err)
	assert.Equal(t, "Removed 0 cached results\n", stdout)
}

func TestKeysCreate_RequiresName(t *testing.T) {
	_, _, err := execute(t, "keys", "create")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--name")
}

func TestKeysList_RequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, _, err := execute(t, "keys", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestKeysRevoke_RejectsBadID(t *testing.T) {
	_, _, err := execute(t, "keys", "revoke", "not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UUID")
}

func TestSplitScopes(t *testing.T) {
	assert.Equal(t, []string{"read", "admin"}, splitScopes(" read, ,admin "))
	assert.Nil(t, splitScopes(""))
}
