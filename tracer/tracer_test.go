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

package tracer_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohithputha/agentgraph/dagstore"
	"github.com/rohithputha/agentgraph/eventbus"
	"github.com/rohithputha/agentgraph/model"
	"github.com/rohithputha/agentgraph/observability"
	"github.com/rohithputha/agentgraph/tracer"
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

func TestRecordWithNoActiveBranchIsNoop(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	bus := eventbus.New(store.DB(), observability.Noop())
	tr := tracer.New(store, observability.Noop())
	tr.Attach(bus)

	err := bus.Publish(ctx, model.EventUserInput, model.Event{
		Type: model.EventUserInput, UserID: "alice", SessionID: "sess-1",
		Content: model.NewDocument(map[string]any{"text": "hi"}), Timestamp: time.Now(),
	})
	require.NoError(t, err)

	nodes, err := store.GetBranchNodes(ctx, nil, 1)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestRecordAppendsNodeAndAdvancesHead(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	bus := eventbus.New(store.DB(), observability.Noop())
	tr := tracer.New(store, observability.Noop())
	tr.Attach(bus)

	branchID, err := store.InsertBranch(ctx, nil, &model.Branch{
		UserID: "alice", SessionID: "sess-1", Name: "main",
		Status: model.BranchActive, CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	err = bus.Publish(ctx, model.EventUserInput, model.Event{
		Type: model.EventUserInput, UserID: "alice", SessionID: "sess-1",
		Content: model.NewDocument(map[string]any{"text": "hi"}), Timestamp: time.Now(),
	})
	require.NoError(t, err)

	nodes, err := store.GetBranchNodes(ctx, nil, branchID)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, model.ActionUserInput, nodes[0].ActionType)

	branch, err := store.GetBranchByID(ctx, nil, branchID)
	require.NoError(t, err)
	require.NotNil(t, branch.HeadNodeID)
	assert.Equal(t, nodes[0].ID, *branch.HeadNodeID)
}

func TestRecordChainsParentToPreviousHead(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	bus := eventbus.New(store.DB(), observability.Noop())
	tracer.New(store, observability.Noop()).Attach(bus)

	branchID, err := store.InsertBranch(ctx, nil, &model.Branch{
		UserID: "a", SessionID: "s", Name: "main", Status: model.BranchActive, CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		err = bus.Publish(ctx, model.EventUserInput, model.Event{
			Type: model.EventUserInput, UserID: "a", SessionID: "s",
			Content: model.NewDocument(nil), Timestamp: time.Now(),
		})
		require.NoError(t, err)
	}

	nodes, err := store.GetBranchNodes(ctx, nil, branchID)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	require.NotNil(t, nodes[1].ParentID)
	assert.Equal(t, nodes[0].ID, *nodes[1].ParentID)
}

func TestStreamChunkEventProducesNoNode(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	bus := eventbus.New(store.DB(), observability.Noop())
	tracer.New(store, observability.Noop()).Attach(bus)

	branchID, err := store.InsertBranch(ctx, nil, &model.Branch{
		UserID: "a", SessionID: "s", Name: "main", Status: model.BranchActive, CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, model.EventLLMStreamChunk, model.Event{
		Type: model.EventLLMStreamChunk, UserID: "a", SessionID: "s", Timestamp: time.Now(),
	}))

	nodes, err := store.GetBranchNodes(ctx, nil, branchID)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}
