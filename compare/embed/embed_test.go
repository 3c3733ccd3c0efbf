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

package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromConfigNoneProvider(t *testing.T) {
	sim, err := NewFromConfig(Config{Provider: "none"})
	require.NoError(t, err)
	defer sim.Close()
	score, err := sim.Score(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestNewFromConfigUnknownProvider(t *testing.T) {
	_, err := NewFromConfig(Config{Provider: "bogus"})
	assert.Error(t, err)
}

func TestSetDefaults(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()
	assert.Equal(t, "chromem", cfg.Provider)
	assert.Equal(t, "agentgit-fingerprints", cfg.Collection)
}

func TestCosineIdenticalVectors(t *testing.T) {
	v := []float32{1, 2, 3}
	assert.InDelta(t, 1.0, cosine(v, v), 1e-9)
}

func TestCosineOrthogonalVectors(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	assert.Equal(t, 0.0, cosine(a, b))
}

func TestCosineMismatchedLengths(t *testing.T) {
	assert.Equal(t, 0.0, cosine([]float32{1, 2}, []float32{1}))
}

func TestCosineZeroVector(t *testing.T) {
	assert.Equal(t, 0.0, cosine([]float32{0, 0}, []float32{1, 1}))
}
