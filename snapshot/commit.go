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

package snapshot

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/rohithputha/agentgraph/model"
)

func getGitAuthorFromRepo(repo *git.Repository) (name, email string) {
	cfg, err := repo.Config()
	if err != nil {
		return "Unknown", "unknown@local"
	}
	if cfg.User.Name != "" {
		name = cfg.User.Name
	} else {
		name = "Unknown"
	}
	if cfg.User.Email != "" {
		email = cfg.User.Email
	} else {
		email = "unknown@local"
	}
	return name, email
}

func (s *Store) createCommit(tree, parent plumbing.Hash, message string) (plumbing.Hash, error) {
	name, email := getGitAuthorFromRepo(s.repo)
	now := time.Now()

	commit := &object.Commit{
		Author:       object.Signature{Name: name, Email: email, When: now},
		Committer:    object.Signature{Name: name, Email: email, When: now},
		Message:      message,
		TreeHash:     tree,
	}
	if !parent.IsZero() {
		commit.ParentHashes = []plumbing.Hash{parent}
	}

	obj := s.repo.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("snapshot: encode commit: %w", err)
	}
	return s.repo.Storer.SetEncodedObject(obj)
}

// CreateCommit builds a snapshot of workspace and chains it onto parentSHA
// (empty string for no parent). The store itself never remembers a "last
// snapshot" — callers (the session facade, via the DAG store's
// GetLatestCheckpoint) own parent resolution.
func (s *Store) CreateCommit(ctx context.Context, workspace, parentSHA, message string, dirty *DirtyTracker) (string, error) {
	parentHash, err := parseHash(parentSHA)
	if err != nil {
		return "", err
	}

	if dirty != nil && !parentHash.IsZero() {
		if parentCommit, err := s.repo.CommitObject(parentHash); err == nil {
			if tree, err := parentCommit.Tree(); err == nil {
				dirty.baseTree = tree
			}
		}
	}

	_, span := s.obs.StartSpan(ctx, "snapshot.create_commit")
	defer span.End()

	treeHash, err := s.BuildTreeFromWorkspace(workspace, dirty)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("snapshot: build tree: %w", err)
	}

	commitHash, err := s.createCommit(treeHash, parentHash, message)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("snapshot: create commit: %w", err)
	}
	return commitHash.String(), nil
}

// RestoreCommit materialises every file recorded in sha's tree into
// workspace, creating parent directories as needed. Existing files outside
// the snapshot are left untouched: restore is additive, not a clean sync.
func (s *Store) RestoreCommit(ctx context.Context, sha, workspace string) error {
	_, span := s.obs.StartSpan(ctx, "snapshot.restore_commit")
	defer span.End()

	hash, err := parseHash(sha)
	if err != nil {
		span.RecordError(err)
		return err
	}
	commit, err := s.repo.CommitObject(hash)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("snapshot: load commit %s: %w", sha, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("snapshot: load tree for %s: %w", sha, err)
	}

	entries, err := flattenTree(tree)
	if err != nil {
		span.RecordError(err)
		return err
	}

	if err := os.MkdirAll(workspace, 0o755); err != nil {
		span.RecordError(err)
		return fmt.Errorf("snapshot: create workspace %s: %w", workspace, err)
	}

	for path, entry := range entries {
		dest := filepath.Join(workspace, path)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			span.RecordError(err)
			return fmt.Errorf("snapshot: create dir for %s: %w", dest, err)
		}
		blob, err := s.repo.BlobObject(entry.Hash)
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("snapshot: load blob for %s: %w", path, err)
		}
		reader, err := blob.Reader()
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("snapshot: read blob for %s: %w", path, err)
		}
		content := make([]byte, blob.Size)
		if _, err := io.ReadFull(reader, content); err != nil {
			reader.Close()
			span.RecordError(err)
			return fmt.Errorf("snapshot: buffer blob for %s: %w", path, err)
		}
		reader.Close()

		mode := os.FileMode(0o644)
		if entry.Mode == filemode.Executable {
			mode = 0o755
		}
		if err := os.WriteFile(dest, content, mode); err != nil {
			span.RecordError(err)
			return fmt.Errorf("snapshot: write %s: %w", dest, err)
		}
	}
	return nil
}

// DiffCommits compares two commits' flattened file listings, reporting
// added/removed/changed paths. Grounded on the pre-restore diff helper the
// original tooling exposed before a checkpoint restore.
func (s *Store) DiffCommits(a, b string) ([]model.FileDiff, error) {
	filesA, err := s.treeEntries(a)
	if err != nil {
		return nil, err
	}
	filesB, err := s.treeEntries(b)
	if err != nil {
		return nil, err
	}

	var diffs []model.FileDiff
	for path, entryA := range filesA {
		entryB, ok := filesB[path]
		if !ok {
			diffs = append(diffs, model.FileDiff{Path: path, Change: "removed"})
			continue
		}
		if entryA.Hash != entryB.Hash {
			diffs = append(diffs, model.FileDiff{Path: path, Change: "changed"})
		}
	}
	for path := range filesB {
		if _, ok := filesA[path]; !ok {
			diffs = append(diffs, model.FileDiff{Path: path, Change: "added"})
		}
	}
	return diffs, nil
}

func (s *Store) treeEntries(sha string) (map[string]object.TreeEntry, error) {
	hash, err := parseHash(sha)
	if err != nil {
		return nil, err
	}
	commit, err := s.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("snapshot: load commit %s: %w", sha, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("snapshot: load tree for %s: %w", sha, err)
	}
	return flattenTree(tree)
}
