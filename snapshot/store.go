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

// Package snapshot builds and restores content-addressed filesystem
// checkpoints on top of go-git's plumbing layer: blob/tree/commit objects
// in a bare, append-only repository owned exclusively by this system. The
// store holds no "last snapshot" pointer — parent chaining is a pure input
// supplied by the caller (the DAG store's GetLatestCheckpoint), so
// concurrent sessions never contend on a shared cursor.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/rohithputha/agentgraph/observability"
)

// ignoredDirs are never walked when building a tree from a workspace.
var ignoredDirs = map[string]bool{
	".git":          true,
	".agentgit":     true,
	"__pycache__":   true,
	"node_modules":  true,
	".venv":         true,
}

// ignoredSuffixes are skipped at the leaf level.
var ignoredSuffixes = []string{".pyc", ".DS_Store"}

// Store owns a bare, content-addressed object database. It never keeps a
// "current" ref: every operation is addressed by an explicit commit hash.
type Store struct {
	repo *git.Repository
	obs  *observability.Tracer
}

// Open opens (initialising if absent) a bare repository at root, used as
// the backing object store for all checkpoints under this project, per the
// <project>/.agentgit/snapshots.git layout.
func Open(root string, obs *observability.Tracer) (*Store, error) {
	if obs == nil {
		obs = observability.Noop()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot: create repo dir: %w", err)
	}

	fs := osfs.New(root)
	dotGitStorage := filesystem.NewStorage(fs, nil)

	repo, err := git.Open(dotGitStorage, nil)
	if err == git.ErrRepositoryNotExists {
		repo, err = git.Init(dotGitStorage, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: open repo at %s: %w", root, err)
	}
	return &Store{repo: repo, obs: obs}, nil
}

func shouldIgnorePath(rel string) bool {
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if ignoredDirs[part] {
			return true
		}
	}
	base := filepath.Base(rel)
	for _, suf := range ignoredSuffixes {
		if strings.HasSuffix(base, suf) {
			return true
		}
	}
	return false
}

func parseHash(sha string) (plumbing.Hash, error) {
	if sha == "" {
		return plumbing.ZeroHash, nil
	}
	h := plumbing.NewHash(sha)
	if h.IsZero() && sha != plumbing.ZeroHash.String() {
		return plumbing.ZeroHash, fmt.Errorf("snapshot: malformed commit hash %q", sha)
	}
	return h, nil
}
