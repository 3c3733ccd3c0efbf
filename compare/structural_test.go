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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rohithputha/agentgraph/model"
)

func TestStructuralScoreIdenticalShapeIsOne(t *testing.T) {
	a := model.NewDocument(map[string]any{"text": "hello", "tokens": 5})
	b := model.NewDocument(map[string]any{"text": "goodbye", "tokens": 9})
	assert.Equal(t, 1.0, structuralScore(a, b, nil))
}

func TestStructuralScoreMissingKeyLowersJaccard(t *testing.T) {
	a := model.NewDocument(map[string]any{"text": "hi", "tool_calls": []any{"a"}})
	b := model.NewDocument(map[string]any{"text": "hi"})
	score := structuralScore(a, b, nil)
	assert.Less(t, score, 1.0)
	assert.Greater(t, score, 0.0)
}

func TestStructuralScoreTypeMismatchPenalizesTypeComponent(t *testing.T) {
	same := model.NewDocument(map[string]any{"count": 1})
	diff := model.NewDocument(map[string]any{"count": "one"})
	score := structuralScore(same, diff, nil)
	// key sets match (K=1) but value types differ (T=0): 0.6*1 + 0.4*0 = 0.6
	assert.InDelta(t, 0.6, score, 1e-9)
}

func TestStructuralScoreIgnoresConfiguredFields(t *testing.T) {
	a := model.NewDocument(map[string]any{"text": "hi", "request_id": "abc"})
	b := model.NewDocument(map[string]any{"text": "hi", "request_id": "xyz"})
	ignore := map[string]bool{"request_id": true}
	assert.Equal(t, 1.0, structuralScore(a, b, ignore))
}

func TestStructuralScoreBothEmptyIsOne(t *testing.T) {
	assert.Equal(t, 1.0, structuralScore(model.NewDocument(nil), model.NewDocument(nil), nil))
}

func TestStructuralScoreNestedAndIndexedPaths(t *testing.T) {
	a := model.NewDocument(map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"content": "hi"}},
		},
	})
	b := model.NewDocument(map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"content": "bye"}},
		},
	})
	assert.Equal(t, 1.0, structuralScore(a, b, nil))
}

func TestFlattenKeyPathsRecordsLeafTypes(t *testing.T) {
	paths := flattenKeyPaths(map[string]any{
		"a": 1,
		"b": map[string]any{"c": "x"},
	}, "", nil)
	names := sortedPaths(paths)
	assert.Equal(t, []string{"a", "b.c"}, names)
	assert.Equal(t, "int", paths["a"])
	assert.Equal(t, "string", paths["b.c"])
}

func TestJaccardOfIdenticalSetsIsOne(t *testing.T) {
	set := map[string]string{"a": "int", "b": "string"}
	assert.Equal(t, 1.0, jaccard(set, set))
}

func TestJaccardOfDisjointSetsIsZero(t *testing.T) {
	a := map[string]string{"a": "int"}
	b := map[string]string{"b": "int"}
	assert.Equal(t, 0.0, jaccard(a, b))
}
