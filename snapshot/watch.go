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
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/rohithputha/agentgraph/internal/obslog"
)

// DirtyTracker watches a workspace and records which relative paths have
// changed since the tracker started (or since the last Reset), so
// BuildTreeFromWorkspace can skip re-hashing files that a checkpoint
// already captured unchanged. This repurposes the hot-reload watcher this
// lineage otherwise uses for config files.
type DirtyTracker struct {
	watcher  *fsnotify.Watcher
	root     string
	mu       sync.Mutex
	dirty    map[string]bool
	baseTree *object.Tree
	started  bool
}

// NewDirtyTracker starts watching root recursively. Any error starting the
// underlying watch is non-fatal: BuildTreeFromWorkspace treats a tracker
// with started=false as "everything is dirty" (full walk, degraded mode).
func NewDirtyTracker(root string) *DirtyTracker {
	t := &DirtyTracker{root: root, dirty: make(map[string]bool)}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		obslog.Default().Warn("snapshot: dirty tracker disabled, falling back to full walk", "error", err)
		return t
	}
	if err := addRecursive(w, root); err != nil {
		obslog.Default().Warn("snapshot: dirty tracker watch failed, falling back to full walk", "error", err)
		_ = w.Close()
		return t
	}

	t.watcher = w
	t.started = true
	go t.loop()
	return t
}

func addRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

func (t *DirtyTracker) loop() {
	for {
		select {
		case evt, ok := <-t.watcher.Events:
			if !ok {
				return
			}
			rel, err := filepath.Rel(t.root, evt.Name)
			if err != nil {
				continue
			}
			t.mu.Lock()
			t.dirty[filepath.ToSlash(rel)] = true
			t.mu.Unlock()
		case _, ok := <-t.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// IsDirty reports whether rel has changed since the tracker started or was
// last reset. An un-started tracker reports every path dirty.
func (t *DirtyTracker) IsDirty(rel string) bool {
	if !t.started {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dirty[filepath.ToSlash(rel)]
}

// Reset clears the recorded dirty set, typically called right after a
// checkpoint is taken.
func (t *DirtyTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dirty = make(map[string]bool)
}

// Close stops the underlying watch.
func (t *DirtyTracker) Close() error {
	if t.watcher == nil {
		return nil
	}
	return t.watcher.Close()
}
