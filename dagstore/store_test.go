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

package dagstore_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohithputha/agentgraph/dagstore"
	"github.com/rohithputha/agentgraph/model"
)

func newStore(t *testing.T) *dagstore.Store {
	t.Helper()
	db, err := sql.Open("sqlite3", "file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := dagstore.Open(db, "sqlite")
	require.NoError(t, err)
	return store
}

func TestOpenRejectsNilDB(t *testing.T) {
	_, err := dagstore.Open(nil, "sqlite")
	assert.Error(t, err)
}

func TestOpenRejectsUnknownDialect(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = dagstore.Open(db, "oracle")
	assert.Error(t, err)
}

func TestInsertAndGetNode(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	n := &model.ExecutionNode{
		UserID:      "alice",
		SessionID:   "sess-1",
		BranchID:    1,
		ActionType:  model.ActionUserInput,
		Content:     model.NewDocument(map[string]any{"text": "hi"}),
		TriggeredBy: model.CallerHumanCLI,
		Timestamp:   time.Now().UTC(),
	}
	id, err := store.InsertNode(ctx, nil, n)
	require.NoError(t, err)
	assert.NotZero(t, id)

	got, err := store.GetNode(ctx, nil, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.UserID)
	assert.Equal(t, model.ActionUserInput, got.ActionType)
	assert.Equal(t, model.CallerHumanCLI, got.TriggeredBy)
	v, ok := got.Content.Get("text")
	require.True(t, ok)
	assert.Equal(t, "hi", v)
}

func TestGetNodeMissingReturnsErrNoRows(t *testing.T) {
	store := newStore(t)
	_, err := store.GetNode(context.Background(), nil, 9999)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestGetPathToRootWalksParentChain(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	root := &model.ExecutionNode{UserID: "a", SessionID: "s", BranchID: 1, ActionType: model.ActionUserInput, TriggeredBy: model.CallerHumanCLI, Timestamp: time.Now()}
	rootID, err := store.InsertNode(ctx, nil, root)
	require.NoError(t, err)

	child := &model.ExecutionNode{UserID: "a", SessionID: "s", BranchID: 1, ParentID: &rootID, ActionType: model.ActionLLMCall, TriggeredBy: model.CallerAgent, Timestamp: time.Now()}
	childID, err := store.InsertNode(ctx, nil, child)
	require.NoError(t, err)

	chain, err := store.GetPathToRoot(ctx, nil, childID)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, rootID, chain[0].ID)
	assert.Equal(t, childID, chain[1].ID)
}

func TestGetBranchNodesOrderedByInsertion(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	for i := 0; i < 3; i++ {
		n := &model.ExecutionNode{UserID: "a", SessionID: "s", BranchID: 7, ActionType: model.ActionUserInput, TriggeredBy: model.CallerHumanCLI, Timestamp: time.Now()}
		_, err := store.InsertNode(ctx, nil, n)
		require.NoError(t, err)
	}

	nodes, err := store.GetBranchNodes(ctx, nil, 7)
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Less(t, nodes[0].ID, nodes[1].ID)
	assert.Less(t, nodes[1].ID, nodes[2].ID)
}

func TestInsertAndGetBranch(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	b := &model.Branch{
		UserID:    "alice",
		SessionID: "sess-1",
		Name:      "main",
		Status:    model.BranchActive,
		Intent:    "initial",
		CreatedBy: "alice",
		CreatedAt: time.Now().UTC(),
	}
	id, err := store.InsertBranch(ctx, nil, b)
	require.NoError(t, err)

	got, err := store.GetBranch(ctx, nil, "alice", "sess-1", "main")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, model.BranchActive, got.Status)
}

func TestGetActiveBranchReturnsNilWhenNone(t *testing.T) {
	store := newStore(t)
	b, err := store.GetActiveBranch(context.Background(), nil, "nobody", "nothing")
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestUpdateBranchHeadAndStatus(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	branch := &model.Branch{UserID: "a", SessionID: "s", Name: "main", Status: model.BranchActive, CreatedAt: time.Now()}
	branchID, err := store.InsertBranch(ctx, nil, branch)
	require.NoError(t, err)

	node := &model.ExecutionNode{UserID: "a", SessionID: "s", BranchID: branchID, ActionType: model.ActionUserInput, TriggeredBy: model.CallerHumanCLI, Timestamp: time.Now()}
	nodeID, err := store.InsertNode(ctx, nil, node)
	require.NoError(t, err)

	require.NoError(t, store.UpdateBranchHead(ctx, nil, branchID, nodeID))
	reason := "done"
	require.NoError(t, store.UpdateBranchStatus(ctx, nil, branchID, model.BranchCompleted, &reason))

	got, err := store.GetBranchByID(ctx, nil, branchID)
	require.NoError(t, err)
	require.NotNil(t, got.HeadNodeID)
	assert.Equal(t, nodeID, *got.HeadNodeID)
	assert.Equal(t, model.BranchCompleted, got.Status)
	require.NotNil(t, got.StatusReason)
	assert.Equal(t, "done", *got.StatusReason)
}

func TestListBranchesOrderedNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	for _, name := range []string{"one", "two", "three"} {
		b := &model.Branch{UserID: "a", SessionID: "s", Name: name, Status: model.BranchActive, CreatedAt: time.Now()}
		_, err := store.InsertBranch(ctx, nil, b)
		require.NoError(t, err)
	}

	branches, err := store.ListBranches(ctx, nil, "a", "s")
	require.NoError(t, err)
	require.Len(t, branches, 3)
	assert.Equal(t, "three", branches[0].Name)
	assert.Equal(t, "one", branches[2].Name)
}
