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

// Package embed provides pluggable semantic-similarity backends for the
// comparator's "similar" verdict. The default is an in-process chromem-go
// collection whose vectors come from chromem-go's default embedding
// function (OpenAI's embedding API, so it needs OPENAI_API_KEY and network
// access); qdrant and pinecone are available for callers that already
// run one of those as their vector store and want comparison embeddings to
// live alongside it.
package embed

import (
	"context"
	"fmt"
	"math"
)

// Config selects and configures an embedding backend.
type Config struct {
	Provider string // "chromem" (default), "qdrant", "pinecone", "none"
	Endpoint string
	APIKey   string
	Collection string
}

// SetDefaults fills in anything the caller left zero.
func (c *Config) SetDefaults() {
	if c.Provider == "" {
		c.Provider = "chromem"
	}
	if c.Collection == "" {
		c.Collection = "agentgit-fingerprints"
	}
}

// Similarity embeds two texts and returns their cosine similarity in
// [-1, 1]. A "none" provider always returns 0 rather than failing; the
// comparator then finds a match only when two responses are exactly equal.
type Similarity interface {
	Score(ctx context.Context, a, b string) (float64, error)
	Close() error
}

// NewFromConfig builds a Similarity backend from cfg.
func NewFromConfig(cfg Config) (Similarity, error) {
	cfg.SetDefaults()
	switch cfg.Provider {
	case "chromem":
		return newChromemSimilarity(cfg)
	case "qdrant":
		return newQdrantSimilarity(cfg)
	case "pinecone":
		return newPineconeSimilarity(cfg)
	case "none":
		return noneSimilarity{}, nil
	default:
		return nil, fmt.Errorf("embed: unsupported provider %q", cfg.Provider)
	}
}

type noneSimilarity struct{}

func (noneSimilarity) Score(context.Context, string, string) (float64, error) { return 0, nil }
func (noneSimilarity) Close() error                                          { return nil }

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
