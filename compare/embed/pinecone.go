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
	"fmt"

	"github.com/pinecone-io/go-pinecone/pinecone"
)

// pineconeSimilarity mirrors qdrantSimilarity but against a managed
// Pinecone index, for operators who already host their vector data there.
type pineconeSimilarity struct {
	index *pinecone.IndexConnection
}

func newPineconeSimilarity(cfg Config) (Similarity, error) {
	client, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("embed: connect pinecone: %w", err)
	}
	idx, err := client.Index(pinecone.NewIndexConnParams{Host: cfg.Endpoint})
	if err != nil {
		return nil, fmt.Errorf("embed: open pinecone index: %w", err)
	}
	return &pineconeSimilarity{index: idx}, nil
}

func (p *pineconeSimilarity) Score(ctx context.Context, a, b string) (float64, error) {
	va, err := embedLocal(ctx, a)
	if err != nil {
		return 0, err
	}
	vb, err := embedLocal(ctx, b)
	if err != nil {
		return 0, err
	}

	_, err = p.index.UpsertVectors(ctx, []*pinecone.Vector{
		{Id: "agentgit-a", Values: &va},
		{Id: "agentgit-b", Values: &vb},
	})
	if err != nil {
		return 0, fmt.Errorf("embed: upsert pinecone vectors: %w", err)
	}

	res, err := p.index.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          va,
		TopK:            2,
		IncludeValues:   false,
		IncludeMetadata: false,
	})
	if err != nil {
		return 0, fmt.Errorf("embed: query pinecone: %w", err)
	}
	for _, m := range res.Matches {
		if m.Vector != nil && m.Vector.Id == "agentgit-b" {
			return float64(m.Score), nil
		}
	}
	return 0, nil
}

func (p *pineconeSimilarity) Close() error { return nil }
