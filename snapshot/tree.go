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
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"golang.org/x/sync/errgroup"
)

// buildTreeFromEntries groups a flat map of full relative path -> leaf
// TreeEntry into the nested tree objects git requires, emitting one tree
// object per directory level (deepest first) and returning the root tree's
// hash. Entries within a directory are sorted by name so the resulting
// hash is deterministic regardless of walk order.
func buildTreeFromEntries(repo *git.Repository, entries map[string]object.TreeEntry) (plumbing.Hash, error) {
	type dirNode struct {
		files map[string]object.TreeEntry
		dirs  map[string]*dirNode
	}
	root := &dirNode{files: map[string]object.TreeEntry{}, dirs: map[string]*dirNode{}}

	for path, entry := range entries {
		parts := strings.Split(filepath.ToSlash(path), "/")
		cur := root
		for _, seg := range parts[:len(parts)-1] {
			next, ok := cur.dirs[seg]
			if !ok {
				next = &dirNode{files: map[string]object.TreeEntry{}, dirs: map[string]*dirNode{}}
				cur.dirs[seg] = next
			}
			cur = next
		}
		leaf := parts[len(parts)-1]
		entry.Name = leaf
		cur.files[leaf] = entry
	}

	var emit func(n *dirNode) (plumbing.Hash, error)
	emit = func(n *dirNode) (plumbing.Hash, error) {
		tree := &object.Tree{}
		names := make([]string, 0, len(n.files)+len(n.dirs))
		for name := range n.files {
			names = append(names, name)
		}
		for name := range n.dirs {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			if child, ok := n.dirs[name]; ok {
				hash, err := emit(child)
				if err != nil {
					return plumbing.ZeroHash, err
				}
				tree.Entries = append(tree.Entries, object.TreeEntry{Name: name, Mode: filemode.Dir, Hash: hash})
				continue
			}
			tree.Entries = append(tree.Entries, n.files[name])
		}

		obj := repo.Storer.NewEncodedObject()
		if err := tree.Encode(obj); err != nil {
			return plumbing.ZeroHash, fmt.Errorf("snapshot: encode tree: %w", err)
		}
		return repo.Storer.SetEncodedObject(obj)
	}

	return emit(root)
}

// BuildTreeFromWorkspace walks workspace, hashing every non-ignored file
// concurrently (bounded by GOMAXPROCS), then builds the tree deterministically
// from the resulting flat entry map. Symlinks are skipped outright: a
// symlink could point outside the workspace and end up captured in
// checkpoint history.
func (s *Store) BuildTreeFromWorkspace(workspace string, dirty *DirtyTracker) (plumbing.Hash, error) {
	var paths []string
	err := filepath.WalkDir(workspace, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(workspace, path)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", path, err)
		}
		if strings.HasPrefix(rel, "..") {
			return fmt.Errorf("snapshot: path traversal detected: %s", rel)
		}
		if shouldIgnorePath(rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return nil
		}
		if dirty != nil && !dirty.IsDirty(rel) {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("snapshot: walk workspace: %w", err)
	}

	entries := make(map[string]object.TreeEntry, len(paths))
	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, rel := range paths {
		rel := rel
		g.Go(func() error {
			hash, mode, err := createBlobFromFile(s.repo, filepath.Join(workspace, rel))
			if err != nil {
				return err
			}
			mu.Lock()
			entries[rel] = object.TreeEntry{Name: rel, Mode: mode, Hash: hash}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("snapshot: hash workspace files: %w", err)
	}

	// If this is an incremental (dirty-only) build, merge with the parent
	// commit's unchanged entries before building the tree, so the result
	// still reflects the full workspace.
	if dirty != nil && dirty.baseTree != nil {
		existing, err := flattenTree(dirty.baseTree)
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("snapshot: flatten base tree: %w", err)
		}
		for path, entry := range existing {
			if _, overwritten := entries[path]; !overwritten {
				entries[path] = entry
			}
		}
	}

	return buildTreeFromEntries(s.repo, entries)
}

// GetSnapshotFiles lists every file path recorded in the commit's tree.
func (s *Store) GetSnapshotFiles(sha string) ([]string, error) {
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
	flat, err := flattenTree(tree)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(flat))
	for p := range flat {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func flattenTree(tree *object.Tree) (map[string]object.TreeEntry, error) {
	out := make(map[string]object.TreeEntry)
	walker := object.NewTreeWalker(tree, true, nil)
	defer walker.Close()
	for {
		name, entry, err := walker.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("snapshot: walk tree: %w", err)
		}
		if entry.Mode == filemode.Dir {
			continue
		}
		out[name] = entry
	}
	return out, nil
}
