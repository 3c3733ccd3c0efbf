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

package snapshot_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohithputha/agentgraph/snapshot"
)

func TestDirtyTrackerMarksChangedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "unchanged.txt", "v1")

	tracker := snapshot.NewDirtyTracker(root)
	defer tracker.Close()

	changed := filepath.Join(root, "changed.txt")
	require.NoError(t, os.WriteFile(changed, []byte("v1"), 0o644))

	require.Eventually(t, func() bool {
		return tracker.IsDirty("changed.txt")
	}, 2*time.Second, 10*time.Millisecond, "dirty tracker did not observe the new file")

	assert.False(t, tracker.IsDirty("unchanged.txt"))
}

func TestDirtyTrackerResetClearsState(t *testing.T) {
	root := t.TempDir()
	tracker := snapshot.NewDirtyTracker(root)
	defer tracker.Close()

	changed := filepath.Join(root, "a.txt")
	require.NoError(t, os.WriteFile(changed, []byte("v1"), 0o644))
	require.Eventually(t, func() bool {
		return tracker.IsDirty("a.txt")
	}, 2*time.Second, 10*time.Millisecond)

	tracker.Reset()
	assert.False(t, tracker.IsDirty("a.txt"))
}
