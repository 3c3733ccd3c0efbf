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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohithputha/agentgraph/model"
)

func TestInsertAndGetCheckpoint(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	label := "before-refactor"
	cp := &model.Checkpoint{
		Hash:          "abc123",
		FilesystemRef: "abc123",
		UserID:        "alice",
		SessionID:     "sess-1",
		AgentMemory:   model.NewDocument(map[string]any{"notes": "x"}),
		FilesChanged:  []string{"a.go", "b.go"},
		CreatedAt:     time.Now().UTC(),
		SizeBytes:     512,
		Label:         &label,
	}
	require.NoError(t, store.InsertCheckpoint(ctx, nil, cp))

	got, err := store.GetCheckpoint(ctx, nil, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.UserID)
	assert.Equal(t, []string{"a.go", "b.go"}, got.FilesChanged)
	require.NotNil(t, got.Label)
	assert.Equal(t, "before-refactor", *got.Label)
}

func TestGetLatestCheckpointReturnsNilWhenNone(t *testing.T) {
	store := newStore(t)
	cp, err := store.GetLatestCheckpoint(context.Background(), nil, "nobody", "nothing")
	require.NoError(t, err)
	assert.Nil(t, cp)
}

func TestListCheckpointsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	base := time.Now().UTC()
	for i, h := range []string{"h1", "h2", "h3"} {
		cp := &model.Checkpoint{
			Hash: h, FilesystemRef: h, UserID: "a", SessionID: "s",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.InsertCheckpoint(ctx, nil, cp))
	}

	list, err := store.ListCheckpoints(ctx, nil, "a", "s")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "h3", list[0].Hash)
}

func TestTagUpsertGetAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	tag := &model.Tag{
		UserID: "alice", SessionID: "sess-1", TagName: "prod-baseline",
		TagType: model.TagBaseline, NodeID: 42,
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.UpsertTag(ctx, nil, tag))

	got, err := store.GetTag(ctx, nil, "alice", "sess-1", "prod-baseline")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(42), got.NodeID)

	tag.NodeID = 99
	require.NoError(t, store.UpsertTag(ctx, nil, tag))
	got, err = store.GetTag(ctx, nil, "alice", "sess-1", "prod-baseline")
	require.NoError(t, err)
	assert.Equal(t, int64(99), got.NodeID)

	require.NoError(t, store.DeleteTag(ctx, nil, "alice", "sess-1", "prod-baseline"))
	got, err = store.GetTag(ctx, nil, "alice", "sess-1", "prod-baseline")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListTagsByType(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	for _, name := range []string{"r1", "r2"} {
		tag := &model.Tag{
			UserID: "a", SessionID: "s", TagName: name, TagType: model.TagRelease,
			NodeID: 1, CreatedAt: time.Now(), UpdatedAt: time.Now(),
		}
		require.NoError(t, store.UpsertTag(ctx, nil, tag))
	}
	milestone := &model.Tag{UserID: "a", SessionID: "s", TagName: "m1", TagType: model.TagMilestone, NodeID: 1, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, store.UpsertTag(ctx, nil, milestone))

	releases, err := store.ListTagsByType(ctx, nil, "a", "s", model.TagRelease)
	require.NoError(t, err)
	assert.Len(t, releases, 2)
}

func TestRecordingLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	rec := &model.Recording{
		RecordingID: "rec-1", Name: "smoke", UserID: "a", SessionID: "s",
		BranchID: 1, Status: model.RecordingInProgress, StartedAt: time.Now().UTC(),
	}
	require.NoError(t, store.InsertRecording(ctx, nil, rec))

	idx, err := store.IncrementRecordingStepCount(ctx, nil, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	idx, err = store.IncrementRecordingStepCount(ctx, nil, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	inProgress, err := store.ListInProgressRecordings(ctx, nil, "a", "s")
	require.NoError(t, err)
	require.Len(t, inProgress, 1)
	assert.Equal(t, 2, inProgress[0].StepCount)

	completed := time.Now().UTC()
	require.NoError(t, store.UpdateRecordingStatus(ctx, nil, "rec-1", model.RecordingCompleted, &completed, nil))

	got, err := store.GetRecording(ctx, nil, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, model.RecordingCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)

	inProgress, err = store.ListInProgressRecordings(ctx, nil, "a", "s")
	require.NoError(t, err)
	assert.Empty(t, inProgress)
}

func TestInsertAndListLLMCallDetails(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	for i := 0; i < 2; i++ {
		d := &model.LLMCallDetail{
			NodeID: int64(i + 1), RecordingID: "rec-1", StepIndex: i,
			Provider: "openai", Method: "chat.completions", Model: "gpt-4",
			Fingerprint:   "fp",
			RequestParams: model.NewDocument(map[string]any{"prompt": "hi"}),
			ResponseData:  model.NewDocument(map[string]any{"content": "hello"}),
			TokenUsage:    &model.TokenUsage{PromptTokens: 5, CompletionTokens: 3, TotalTokens: 8},
		}
		_, err := store.InsertLLMCallDetail(ctx, nil, d)
		require.NoError(t, err)
	}

	list, err := store.ListLLMCallDetailsByRecording(ctx, nil, "rec-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 0, list[0].StepIndex)
	assert.Equal(t, 1, list[1].StepIndex)
	require.NotNil(t, list[0].TokenUsage)
	assert.Equal(t, int64(8), list[0].TokenUsage.TotalTokens)
}

func TestInsertAndGetComparisonWithSteps(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	matchType := model.MatchExact
	result := &model.ComparisonResult{
		ComparisonID: "cmp-1", BaselineID: "rec-base", ReplayID: "rec-replay",
		CreatedAt: time.Now().UTC(), Total: 2, Matched: 1, Diverged: 1, OverallPass: false,
		Steps: []model.StepComparison{
			{Index: 0, Status: model.StepMatch, MatchType: &matchType, SimilarityScore: 1.0},
			{Index: 1, Status: model.StepDiverge, SimilarityScore: 0.2},
		},
	}
	require.NoError(t, store.InsertComparison(ctx, nil, result))

	got, err := store.GetComparison(ctx, nil, "cmp-1")
	require.NoError(t, err)
	require.Len(t, got.Steps, 2)
	assert.Equal(t, model.StepMatch, got.Steps[0].Status)
	assert.Equal(t, model.StepDiverge, got.Steps[1].Status)

	list, err := store.ListComparisons(ctx, nil, "rec-base")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "cmp-1", list[0].ComparisonID)
}
