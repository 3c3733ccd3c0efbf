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

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// StorageConfig configures the DAG store connection.
type StorageConfig struct {
	Dialect string `yaml:"dialect"` // sqlite, postgres, mysql
	DSN     string `yaml:"dsn"`     // empty => derive sqlite path from ProjectRoot
}

// ComparatorConfig configures similarity scoring thresholds and the
// embedder backend used for semantic similarity.
type ComparatorConfig struct {
	SimilarityThreshold float64  `yaml:"similarity_threshold"`
	EmbedderProvider    string   `yaml:"embedder_provider"` // chromem, qdrant, pinecone, none
	EmbedderEndpoint    string   `yaml:"embedder_endpoint"`
	EmbedderAPIKey      string   `yaml:"embedder_api_key"`
	IgnoreFields        []string `yaml:"ignore_fields"` // key names dropped before structural scoring
}

// RecordingConfig configures the recording throttle.
type RecordingConfig struct {
	MaxInProgressPerOwner int `yaml:"max_in_progress_per_owner"`
}

// LoggerConfig configures the ambient logger.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	File   string `yaml:"file"`
	Format string `yaml:"format"`
}

// Config is this module's own settings document, loaded from an optional
// YAML file plus environment variable overrides. It is independent of any
// configuration the host agent framework loads for itself.
type Config struct {
	ProjectRoot string            `yaml:"project_root"`
	Storage     StorageConfig     `yaml:"storage"`
	Comparator  ComparatorConfig  `yaml:"comparator"`
	Recording   RecordingConfig   `yaml:"recording"`
	Logger      LoggerConfig      `yaml:"logger"`
	Tracing     TracingConfigYAML `yaml:"tracing"`
}

// TracingConfigYAML mirrors observability.TracingConfig's shape for YAML
// decoding without creating an import cycle.
type TracingConfigYAML struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"sampling_rate"`
}

// SetDefaults fills in anything the caller (or config file) left zero.
func (c *Config) SetDefaults() {
	if c.ProjectRoot == "" {
		c.ProjectRoot = "."
	}
	if c.Storage.Dialect == "" {
		c.Storage.Dialect = "sqlite"
	}
	if c.Storage.DSN == "" && c.Storage.Dialect == "sqlite" {
		c.Storage.DSN = filepath.Join(c.DotDir(), "dag.sqlite")
	}
	if c.Comparator.SimilarityThreshold <= 0 {
		c.Comparator.SimilarityThreshold = 0.85
	}
	if c.Comparator.EmbedderProvider == "" {
		c.Comparator.EmbedderProvider = "chromem"
	}
	if c.Recording.MaxInProgressPerOwner <= 0 {
		c.Recording.MaxInProgressPerOwner = 1
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "text"
	}
}

// DotDir is <ProjectRoot>/.agentgit, the root of the storage layout.
func (c *Config) DotDir() string {
	return filepath.Join(c.ProjectRoot, ".agentgit")
}

// SnapshotsDir is the bare object store directory.
func (c *Config) SnapshotsDir() string {
	return filepath.Join(c.DotDir(), "snapshots.git")
}

// WorkspaceDir returns the per-owner materialised workspace directory, or
// the project root itself for the sentinel ("default", "default") owner.
func (c *Config) WorkspaceDir(userID, sessionID string) string {
	if userID == "default" && sessionID == "default" {
		return c.ProjectRoot
	}
	return filepath.Join(c.DotDir(), "workspaces", userID, sessionID)
}

// Load reads a YAML config file if path is non-empty and exists, applies
// the AGENTGRAPH_LOG_LEVEL, AGENTGRAPH_LOG_FILE, AGENTGRAPH_LOG_FORMAT and
// AGENTGRAPH_PROJECT_ROOT environment overrides (env var > config file >
// default), and fills defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			raw, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}
	if v := os.Getenv("AGENTGRAPH_LOG_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("AGENTGRAPH_LOG_FILE"); v != "" {
		cfg.Logger.File = v
	}
	if v := os.Getenv("AGENTGRAPH_LOG_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("AGENTGRAPH_PROJECT_ROOT"); v != "" {
		cfg.ProjectRoot = v
	}
	cfg.SetDefaults()
	return cfg, nil
}
