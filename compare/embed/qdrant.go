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

	"github.com/qdrant/go-client/qdrant"
)

// qdrantSimilarity delegates similarity search to a Qdrant collection: two
// texts are embedded locally, upserted as points, and the cosine distance
// Qdrant itself computes on query is returned. Useful when an operator
// already runs Qdrant as their agent's vector store and wants comparison
// scoring to share it.
type qdrantSimilarity struct {
	client     *qdrant.Client
	collection string
}

func newQdrantSimilarity(cfg Config) (Similarity, error) {
	client, err := qdrant.NewClient(&qdrant.Config{Host: cfg.Endpoint, APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("embed: connect qdrant: %w", err)
	}
	return &qdrantSimilarity{client: client, collection: cfg.Collection}, nil
}

func (q *qdrantSimilarity) Score(ctx context.Context, a, b string) (float64, error) {
	va, err := embedLocal(ctx, a)
	if err != nil {
		return 0, err
	}
	vb, err := embedLocal(ctx, b)
	if err != nil {
		return 0, err
	}

	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return 0, fmt.Errorf("embed: check qdrant collection: %w", err)
	}
	if !exists {
		if err := q.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: q.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(len(va)),
				Distance: qdrant.Distance_Cosine,
			}),
		}); err != nil {
			return 0, fmt.Errorf("embed: create qdrant collection: %w", err)
		}
	}

	if _, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points: []*qdrant.PointStruct{
			{Id: qdrant.NewIDNum(1), Vectors: qdrant.NewVectors(va...)},
			{Id: qdrant.NewIDNum(2), Vectors: qdrant.NewVectors(vb...)},
		},
	}); err != nil {
		return 0, fmt.Errorf("embed: upsert qdrant points: %w", err)
	}

	results, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(va...),
		Limit:          qdrant.PtrOf(uint64(2)),
	})
	if err != nil {
		return 0, fmt.Errorf("embed: query qdrant: %w", err)
	}
	for _, r := range results {
		if r.Id.GetNum() == 2 {
			return float64(r.Score), nil
		}
	}
	return 0, nil
}

func (q *qdrantSimilarity) Close() error { return nil }
