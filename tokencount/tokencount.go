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

// Package tokencount estimates token usage for calls whose provider didn't
// report it, so branches and recordings still accumulate a TokensUsed
// figure even against providers that are silent about it.
package tokencount

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/rohithputha/agentgraph/model"
)

// Counter wraps a cached tiktoken encoding.
type Counter struct {
	mu       sync.Mutex
	encoding string
	enc      *tiktoken.Tiktoken
}

// New builds a Counter using the named encoding ("cl100k_base" fits most
// current chat models and is the default when encoding is empty).
func New(encoding string) (*Counter, error) {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("tokencount: load encoding %q: %w", encoding, err)
	}
	return &Counter{encoding: encoding, enc: enc}, nil
}

// Count returns the token length of text.
func (c *Counter) Count(text string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.enc.Encode(text, nil, nil))
}

// EstimateDocument sums token counts across a document's string-valued
// fields, a rough but stable proxy for a request/response payload's size
// when the provider didn't report real usage.
func (c *Counter) EstimateDocument(d model.Document) int {
	total := 0
	for _, v := range d {
		if s, ok := v.(string); ok {
			total += c.Count(s)
		}
	}
	return total
}

// EstimateUsage builds a TokenUsage from request/response documents when a
// provider call returned no usage block of its own.
func (c *Counter) EstimateUsage(request, response model.Document) *model.TokenUsage {
	prompt := int64(c.EstimateDocument(request))
	completion := int64(c.EstimateDocument(response))
	return &model.TokenUsage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
}
