// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohithputha/agentgraph/config"
)

func TestSetDefaultsFillsZeroValues(t *testing.T) {
	cfg := &config.Config{}
	cfg.SetDefaults()

	assert.Equal(t, ".", cfg.ProjectRoot)
	assert.Equal(t, "sqlite", cfg.Storage.Dialect)
	assert.NotEmpty(t, cfg.Storage.DSN)
	assert.Equal(t, 0.85, cfg.Comparator.SimilarityThreshold)
	assert.Equal(t, "chromem", cfg.Comparator.EmbedderProvider)
	assert.Equal(t, 1, cfg.Recording.MaxInProgressPerOwner)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "text", cfg.Logger.Format)
}

func TestSetDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{Dialect: "postgres", DSN: "postgres://x"},
	}
	cfg.SetDefaults()
	assert.Equal(t, "postgres", cfg.Storage.Dialect)
	assert.Equal(t, "postgres://x", cfg.Storage.DSN)
}

func TestDotDirAndSnapshotsDir(t *testing.T) {
	cfg := &config.Config{ProjectRoot: "/tmp/proj"}
	assert.Equal(t, filepath.Join("/tmp/proj", ".agentgit"), cfg.DotDir())
	assert.Equal(t, filepath.Join("/tmp/proj", ".agentgit", "snapshots.git"), cfg.SnapshotsDir())
}

func TestWorkspaceDirDefaultOwnerIsProjectRoot(t *testing.T) {
	cfg := &config.Config{ProjectRoot: "/tmp/proj"}
	assert.Equal(t, "/tmp/proj", cfg.WorkspaceDir("default", "default"))
}

func TestWorkspaceDirNamedOwnerIsNested(t *testing.T) {
	cfg := &config.Config{ProjectRoot: "/tmp/proj"}
	got := cfg.WorkspaceDir("alice", "sess-1")
	assert.Equal(t, filepath.Join("/tmp/proj", ".agentgit", "workspaces", "alice", "sess-1"), got)
}

func TestLoadMissingFileStillAppliesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Storage.Dialect)
}

func TestLoadParsesYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentgit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
project_root: /srv/app
storage:
  dialect: postgres
  dsn: postgres://user@host/db
comparator:
  similarity_threshold: 0.9
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/app", cfg.ProjectRoot)
	assert.Equal(t, "postgres", cfg.Storage.Dialect)
	assert.Equal(t, "postgres://user@host/db", cfg.Storage.DSN)
	assert.Equal(t, 0.9, cfg.Comparator.SimilarityThreshold)
}

func TestLoadEnvOverridesLoggerSettings(t *testing.T) {
	t.Setenv("AGENTGRAPH_LOG_LEVEL", "debug")
	t.Setenv("AGENTGRAPH_LOG_FORMAT", "json")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
}

func TestLoadDotEnvIgnoresMissingFiles(t *testing.T) {
	err := config.LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestLoadDotEnvLoadsExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.env")
	require.NoError(t, os.WriteFile(path, []byte("AGENTGRAPH_TEST_VAR=hello\n"), 0o644))
	defer os.Unsetenv("AGENTGRAPH_TEST_VAR")

	require.NoError(t, config.LoadDotEnv(path))
	assert.Equal(t, "hello", os.Getenv("AGENTGRAPH_TEST_VAR"))
}
