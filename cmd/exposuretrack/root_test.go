package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exposuretrack/model"
	"exposuretrack/store"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func isolatedArgs(t *testing.T) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	return dir, []string{"--config", filepath.Join(dir, "missing.yaml"), "--data-dir", dir}
}

func TestListFallsBackToSeedWithoutWriting(t *testing.T) {
	dir, flags := isolatedArgs(t)

	out, err := execute(t, append([]string{"list"}, flags...)...)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 7, "header plus six available demo tasks")
	assert.Contains(t, lines[1], "Delay Analyzing Conversations")

	_, statErr := os.Stat(filepath.Join(dir, store.DefaultFileName))
	assert.True(t, os.IsNotExist(statErr), "listing must not persist the seed set")
}

func TestListLeavesCorruptDocumentInPlace(t *testing.T) {
	dir, flags := isolatedArgs(t)
	doc := filepath.Join(dir, store.DefaultFileName)
	require.NoError(t, os.WriteFile(doc, []byte("{invalid"), 0o644))

	out, err := execute(t, append([]string{"list"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Delay Analyzing Conversations")

	data, err := os.ReadFile(doc)
	require.NoError(t, err)
	assert.Equal(t, "{invalid", string(data))
	moved, err := filepath.Glob(filepath.Join(dir, "tasks.corrupt-*.json"))
	require.NoError(t, err)
	assert.Empty(t, moved)
}

func TestListArchivedSortedByAnxiety(t *testing.T) {
	dir, flags := isolatedArgs(t)
	gw := store.New(filepath.Join(dir, store.DefaultFileName))
	require.NoError(t, gw.Write([]model.Task{
		{ID: "1", Title: "High", Category: model.CategoryChecking, Instructions: []string{"x"}, Duration: 5, AnxietyLevel: 5, Status: model.StatusArchived, Completions: []time.Time{}},
		{ID: "2", Title: "Low", Category: model.CategoryHoarding, Instructions: []string{"x"}, Duration: 5, AnxietyLevel: 1, Status: model.StatusArchived, Completions: []time.Time{}},
		{ID: "3", Title: "Open", Category: model.CategoryHoarding, Instructions: []string{"x"}, Duration: 5, AnxietyLevel: 3, Status: model.StatusAvailable, Completions: []time.Time{}},
	}))

	out, err := execute(t, append([]string{"list", "--archived", "--sort", "anxiety"}, flags...)...)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "Low"))
	assert.True(t, strings.HasPrefix(lines[2], "High"))
	assert.NotContains(t, out, "Open")
}

func TestListRejectsUnknownSort(t *testing.T) {
	_, flags := isolatedArgs(t)
	_, err := execute(t, append([]string{"list", "--sort", "colour"}, flags...)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown sort order")
}

func TestInsightsCommand(t *testing.T) {
	_, flags := isolatedArgs(t)
	out, err := execute(t, append([]string{"insights"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Total completed:")
	assert.Contains(t, out, "Top category:")
}

func TestPathHonoursDataDirFlag(t *testing.T) {
	dir, flags := isolatedArgs(t)
	out, err := execute(t, append([]string{"path"}, flags...)...)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, store.DefaultFileName), strings.TrimSpace(out))
}

func TestConfigFileSetsDataDir(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	dataDir := filepath.Join(dir, "data")
	require.NoError(t, os.WriteFile(cfgPath, []byte("data_dir: "+dataDir+"\n"), 0o644))

	out, err := execute(t, "path", "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, store.DefaultFileName), strings.TrimSpace(out))
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "exposuretrack dev")
}
