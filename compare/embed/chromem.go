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

	"github.com/philippgille/chromem-go"
)

// chromemSimilarity embeds text via chromem-go's default embedding
// function, which calls OpenAI's embedding API (network access and
// OPENAI_API_KEY required); only the collection and the cosine scoring are
// in-process. It is the backend used when a comparison runs without any
// external vector store configured.
type chromemSimilarity struct {
	collection *chromem.Collection
}

func newChromemSimilarity(cfg Config) (Similarity, error) {
	db := chromem.NewDB()
	col, err := db.CreateCollection(cfg.Collection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("embed: create chromem collection: %w", err)
	}
	return &chromemSimilarity{collection: col}, nil
}

func (c *chromemSimilarity) Score(ctx context.Context, a, b string) (float64, error) {
	ef := c.collection.EmbeddingFunc()
	va, err := ef(ctx, a)
	if err != nil {
		return 0, fmt.Errorf("embed: embed a: %w", err)
	}
	vb, err := ef(ctx, b)
	if err != nil {
		return 0, fmt.Errorf("embed: embed b: %w", err)
	}
	return cosine(va, vb), nil
}

func (c *chromemSimilarity) Close() error { return nil }
