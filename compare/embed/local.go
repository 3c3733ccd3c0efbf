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

// embedLocal vectorises text with chromem-go's default embedding function
// (a call to OpenAI's embedding API, needing OPENAI_API_KEY), shared by the remote-store backends below so qdrant and
// pinecone are exercised as similarity search engines rather than each
// needing their own embedding integration.
func embedLocal(ctx context.Context, text string) ([]float32, error) {
	db := chromem.NewDB()
	col, err := db.CreateCollection("agentgit-scratch", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("embed: create scratch collection: %w", err)
	}
	vec, err := col.EmbeddingFunc()(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed: embed text: %w", err)
	}
	return vec, nil
}
