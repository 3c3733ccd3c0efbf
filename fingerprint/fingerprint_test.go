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

package fingerprint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohithputha/agentgraph/fingerprint"
	"github.com/rohithputha/agentgraph/model"
)

func TestComputeDeterministic(t *testing.T) {
	params := model.NewDocument(map[string]any{
		"messages": []any{
			map[string]any{"role": "system"},
			map[string]any{"role": "user"},
		},
	})
	a := fingerprint.Compute("openai", "chat", "gpt-4o", params)
	b := fingerprint.Compute("openai", "chat", "gpt-4o", params)
	assert.Equal(t, a, b)
	assert.Len(t, a, 16)
}

func TestComputeIgnoresContent(t *testing.T) {
	a := fingerprint.Compute("openai", "chat", "gpt-4o", model.NewDocument(map[string]any{
		"messages": []any{map[string]any{"role": "user", "content": "hello"}},
	}))
	b := fingerprint.Compute("openai", "chat", "gpt-4o", model.NewDocument(map[string]any{
		"messages": []any{map[string]any{"role": "user", "content": "goodbye, this is different"}},
	}))
	assert.Equal(t, a, b, "free-text content must not affect the fingerprint")
}

func TestComputeIgnoresIncidentalTopLevelKeys(t *testing.T) {
	a := fingerprint.Compute("openai", "chat", "gpt-4o", model.NewDocument(map[string]any{
		"messages": []any{map[string]any{"role": "user"}},
		"stream":   true,
	}))
	b := fingerprint.Compute("openai", "chat", "gpt-4o", model.NewDocument(map[string]any{
		"messages":    []any{map[string]any{"role": "user"}},
		"temperature": 0.7,
	}))
	assert.Equal(t, a, b, "incidental top-level request keys must not affect the fingerprint")
}

func TestComputeRoleOrderSensitive(t *testing.T) {
	ab := fingerprint.Compute("openai", "chat", "gpt-4o", model.NewDocument(map[string]any{
		"messages": []any{
			map[string]any{"role": "system"},
			map[string]any{"role": "user"},
		},
	}))
	ba := fingerprint.Compute("openai", "chat", "gpt-4o", model.NewDocument(map[string]any{
		"messages": []any{
			map[string]any{"role": "user"},
			map[string]any{"role": "system"},
		},
	}))
	assert.NotEqual(t, ab, ba, "swapping adjacent roles must change the fingerprint")
}

func TestComputeToolOrderSensitive(t *testing.T) {
	first := fingerprint.Compute("openai", "chat", "gpt-4o", model.NewDocument(map[string]any{
		"tools": []any{
			map[string]any{"name": "search"},
			map[string]any{"name": "browse"},
		},
	}))
	second := fingerprint.Compute("openai", "chat", "gpt-4o", model.NewDocument(map[string]any{
		"tools": []any{
			map[string]any{"name": "browse"},
			map[string]any{"name": "search"},
		},
	}))
	assert.NotEqual(t, first, second, "swapping adjacent tools must change the fingerprint")
}

func TestComputeToolsFromInvocationParams(t *testing.T) {
	fp := fingerprint.Compute("openai", "chat", "gpt-4o", model.NewDocument(map[string]any{
		"invocation_params": map[string]any{
			"tools": []any{map[string]any{"name": "search"}},
		},
	}))
	assert.Len(t, fp, 16)
}

func TestResponseHashMatchesEqualDocuments(t *testing.T) {
	resp1 := model.NewDocument(map[string]any{"b": 2})
	resp2 := model.NewDocument(map[string]any{"b": 2})

	h1, err := fingerprint.ResponseHash(resp1)
	require.NoError(t, err)
	h2, err := fingerprint.ResponseHash(resp2)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestResponseHashDiffersOnResponseChange(t *testing.T) {
	h1, err := fingerprint.ResponseHash(model.NewDocument(map[string]any{"b": 2}))
	require.NoError(t, err)
	h2, err := fingerprint.ResponseHash(model.NewDocument(map[string]any{"b": 3}))
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestResponseHashIgnoresRequestParams(t *testing.T) {
	// ResponseHash takes only the response document: two calls with
	// identical responses but different request params must still hash
	// equal, since request params play no role in the exact-match signal.
	h1, err := fingerprint.ResponseHash(model.NewDocument(map[string]any{"content": "hi"}))
	require.NoError(t, err)
	h2, err := fingerprint.ResponseHash(model.NewDocument(map[string]any{"content": "hi"}))
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}
