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

package compare

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohithputha/agentgraph/model"
)

// stubSimilarity returns a fixed score regardless of input, so tests can
// force the similar/mismatch branch deterministically.
type stubSimilarity struct{ score float64 }

func (s stubSimilarity) Score(ctx context.Context, a, b string) (float64, error) { return s.score, nil }
func (s stubSimilarity) Close() error                                           { return nil }

func llmCall(fp string, req, resp map[string]any) model.LLMCallDetail {
	return model.LLMCallDetail{
		Fingerprint:   fp,
		RequestParams: model.NewDocument(req),
		ResponseData:  model.NewDocument(resp),
	}
}

func TestCompareEmptyRecordings(t *testing.T) {
	c := New(nil, 0)
	result, err := c.Compare(context.Background(), "cmp-1", "base", "replay", nil, nil)
	require.NoError(t, err)
	assert.True(t, result.OverallPass)
	assert.Equal(t, 0, result.Total)
}

func TestCompareIdenticalSingleCall(t *testing.T) {
	call := llmCall("fp1", map[string]any{"a": 1}, map[string]any{"text": "hi"})
	c := New(nil, 0)
	result, err := c.Compare(context.Background(), "cmp-1", "base", "replay",
		[]model.LLMCallDetail{call}, []model.LLMCallDetail{call})
	require.NoError(t, err)
	assert.True(t, result.OverallPass)
	require.Len(t, result.Steps, 1)
	require.NotNil(t, result.Steps[0].MatchType)
	assert.Equal(t, model.MatchExact, *result.Steps[0].MatchType)
	assert.Equal(t, 1.0, result.Steps[0].SimilarityScore)
}

func TestCompareSimilarResponseAboveThreshold(t *testing.T) {
	baseline := llmCall("fp1", map[string]any{"a": 1}, map[string]any{"text": "Hello, world."})
	replay := llmCall("fp1", map[string]any{"a": 1}, map[string]any{"text": "Hello world"})
	c := New(stubSimilarity{score: 0.9}, 0.85)
	result, err := c.Compare(context.Background(), "cmp-1", "base", "replay",
		[]model.LLMCallDetail{baseline}, []model.LLMCallDetail{replay})
	require.NoError(t, err)
	assert.True(t, result.OverallPass)
	require.NotNil(t, result.Steps[0].MatchType)
	assert.Equal(t, model.MatchSimilar, *result.Steps[0].MatchType)
}

func TestCompareAddedStep(t *testing.T) {
	// baseline: fp1, fp3. replay: fp1, fp2, fp3 — fp2 has no counterpart in
	// baseline, so it aligns as an ADDED pair sandwiched between two
	// MATCHED pairs, with no diverge anywhere (spec scenario 4).
	first := llmCall("fp1", map[string]any{}, map[string]any{})
	extra := llmCall("fp2", map[string]any{}, map[string]any{})
	last := llmCall("fp3", map[string]any{}, map[string]any{})
	c := New(nil, 0)
	result, err := c.Compare(context.Background(), "cmp-1", "base", "replay",
		[]model.LLMCallDetail{first, last},
		[]model.LLMCallDetail{first, extra, last})
	require.NoError(t, err)
	assert.False(t, result.OverallPass)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Matched)
	assert.Equal(t, 1, result.Added)
	require.NotNil(t, result.RootCauseIndex)
	assert.Equal(t, 1, *result.RootCauseIndex)
}

func TestExtractSemanticTextCollectsContentAndTextKeys(t *testing.T) {
	doc := model.NewDocument(map[string]any{
		"role": "assistant",
		"content": []any{
			map[string]any{"text": "hello"},
			map[string]any{"text": "world"},
		},
		"metadata": map[string]any{"id": "should-not-appear"},
	})
	got := extractSemanticText(doc)
	assert.Equal(t, "hello world", got)
}

func TestExtractSemanticTextEmptyWithoutContentOrTextKeys(t *testing.T) {
	doc := model.NewDocument(map[string]any{"role": "assistant", "id": "abc"})
	assert.Equal(t, "", extractSemanticText(doc))
}

func TestCompareSemanticSkippedWhenEitherSideHasNoText(t *testing.T) {
	baseline := llmCall("fp1", map[string]any{}, map[string]any{"id": "abc"})
	replay := llmCall("fp1", map[string]any{}, map[string]any{"id": "xyz"})
	c := New(stubSimilarity{score: 0.99}, 0.85)
	result, err := c.Compare(context.Background(), "cmp-1", "base", "replay",
		[]model.LLMCallDetail{baseline}, []model.LLMCallDetail{replay})
	require.NoError(t, err)
	// both sides lack any "content"/"text" key, so semantic score is 0 and
	// structural alone (1.0) is not enough on its own to beat min(1.0, 0).
	assert.False(t, result.OverallPass)
}

func TestCompareDivergeThenCascade(t *testing.T) {
	// Same fingerprint, mismatched response, with no similarity backend so
	// every matched-fingerprint step with different content diverges.
	c := New(nil, 0)
	baseline := []model.LLMCallDetail{
		llmCall("fp1", map[string]any{}, map[string]any{"v": 1}),
		llmCall("fp2", map[string]any{}, map[string]any{"v": 2}),
		llmCall("fp3", map[string]any{}, map[string]any{"v": 3}),
	}
	replay := []model.LLMCallDetail{
		llmCall("fp1", map[string]any{}, map[string]any{"v": 99}),
		llmCall("fp2", map[string]any{}, map[string]any{"v": 98}),
		llmCall("fp3", map[string]any{}, map[string]any{"v": 97}),
	}
	result, err := c.Compare(context.Background(), "cmp-1", "base", "replay", baseline, replay)
	require.NoError(t, err)
	assert.False(t, result.OverallPass)
	require.NotNil(t, result.RootCauseIndex)
	assert.Equal(t, 0, *result.RootCauseIndex)
	assert.Equal(t, model.StepDiverge, result.Steps[0].Status)
	assert.Equal(t, model.StepCascade, result.Steps[1].Status)
	assert.Equal(t, model.StepCascade, result.Steps[2].Status)
	assert.Equal(t, 2, result.CascadeCount)
}
