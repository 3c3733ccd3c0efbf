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

package recording_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohithputha/agentgraph/dagstore"
	"github.com/rohithputha/agentgraph/model"
	"github.com/rohithputha/agentgraph/recording"
)

func newTestStore(t *testing.T) *dagstore.Store {
	t.Helper()
	db, err := sql.Open("sqlite3", "file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store, err := dagstore.Open(db, "sqlite")
	require.NoError(t, err)
	return store
}

func TestThrottleAllowsUpToMax(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	throttle := recording.NewThrottle(store, 2)
	mgr := recording.New(store, throttle)

	_, err := mgr.Start(ctx, nil, "alice", "sess-1", "first", nil)
	require.NoError(t, err)

	ok, err := throttle.Allow(ctx, nil, "alice", "sess-1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = mgr.Start(ctx, nil, "alice", "sess-1", "second", nil)
	require.NoError(t, err)

	ok, err = throttle.Allow(ctx, nil, "alice", "sess-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStartRejectsWhenThrottled(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	mgr := recording.New(store, recording.NewThrottle(store, 1))

	_, err := mgr.Start(ctx, nil, "alice", "sess-1", "first", nil)
	require.NoError(t, err)

	_, err = mgr.Start(ctx, nil, "alice", "sess-1", "second", nil)
	assert.Error(t, err)
}

func TestRecordCallAssignsIncrementingStepIndex(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	mgr := recording.New(store, recording.NewThrottle(store, 1))

	rec, err := mgr.Start(ctx, nil, "alice", "sess-1", "smoke", nil)
	require.NoError(t, err)

	first, err := mgr.RecordCall(ctx, nil, rec.RecordingID, 1, "openai", "chat.completions", "gpt-4",
		model.NewDocument(map[string]any{"prompt": "hi"}), model.NewDocument(map[string]any{"content": "yo"}), nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, first.StepIndex)
	assert.NotEmpty(t, first.Fingerprint)

	second, err := mgr.RecordCall(ctx, nil, rec.RecordingID, 2, "openai", "chat.completions", "gpt-4",
		model.NewDocument(nil), model.NewDocument(nil), nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, second.StepIndex)
}

func TestCompleteMarksRecordingCompleted(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	mgr := recording.New(store, recording.NewThrottle(store, 1))

	rec, err := mgr.Start(ctx, nil, "alice", "sess-1", "smoke", nil)
	require.NoError(t, err)
	require.NoError(t, mgr.Complete(ctx, nil, rec.RecordingID))

	got, err := store.GetRecording(ctx, nil, rec.RecordingID)
	require.NoError(t, err)
	assert.Equal(t, model.RecordingCompleted, got.Status)
}

func TestFailMarksRecordingFailedWithMessage(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	mgr := recording.New(store, recording.NewThrottle(store, 1))

	rec, err := mgr.Start(ctx, nil, "alice", "sess-1", "smoke", nil)
	require.NoError(t, err)
	require.NoError(t, mgr.Fail(ctx, nil, rec.RecordingID, assert.AnError))

	got, err := store.GetRecording(ctx, nil, rec.RecordingID)
	require.NoError(t, err)
	assert.Equal(t, model.RecordingFailed, got.Status)
	require.NotNil(t, got.Error)
	assert.Equal(t, assert.AnError.Error(), *got.Error)
}

func TestAsBaselineTagsHeadNode(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	mgr := recording.New(store, recording.NewThrottle(store, 1))

	rec, err := mgr.Start(ctx, nil, "alice", "sess-1", "smoke", nil)
	require.NoError(t, err)

	nodeID, err := store.InsertNode(ctx, nil, &model.ExecutionNode{
		UserID: "alice", SessionID: "sess-1", BranchID: rec.BranchID,
		ActionType: model.ActionLLMCall, TriggeredBy: model.CallerAgent,
	})
	require.NoError(t, err)
	require.NoError(t, store.UpdateBranchHead(ctx, nil, rec.BranchID, nodeID))

	require.NoError(t, mgr.AsBaseline(ctx, nil, rec.RecordingID, "prod-baseline"))

	tag, err := store.GetTag(ctx, nil, "alice", "sess-1", "prod-baseline")
	require.NoError(t, err)
	require.NotNil(t, tag)
	assert.Equal(t, nodeID, tag.NodeID)
	assert.Equal(t, model.TagBaseline, tag.TagType)
}

func TestAsBaselineFailsWithoutHeadNode(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	mgr := recording.New(store, recording.NewThrottle(store, 1))

	rec, err := mgr.Start(ctx, nil, "alice", "sess-1", "empty", nil)
	require.NoError(t, err)

	err = mgr.AsBaseline(ctx, nil, rec.RecordingID, "prod-baseline")
	assert.Error(t, err)
}
