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
	"fmt"

	"github.com/rohithputha/agentgraph/dagstore"
	"github.com/rohithputha/agentgraph/fingerprint"
	"github.com/rohithputha/agentgraph/model"
)

// ComparePaths compares two live branches directly, without either one
// having run inside a formal recording. It reconstructs LLM-call-shaped
// records from each branch's llm_call/llm_response node pairs so the same
// alignment and scoring logic that compares recordings applies here too.
func (c *Comparator) ComparePaths(ctx context.Context, store *dagstore.Store, comparisonID string, a, b model.Branch) (*model.ComparisonResult, error) {
	callsA, err := callsFromBranch(ctx, store, a.ID)
	if err != nil {
		return nil, fmt.Errorf("compare: reconstruct calls for branch %s: %w", a.Name, err)
	}
	callsB, err := callsFromBranch(ctx, store, b.ID)
	if err != nil {
		return nil, fmt.Errorf("compare: reconstruct calls for branch %s: %w", b.Name, err)
	}
	return c.Compare(ctx, comparisonID, a.Name, b.Name, callsA, callsB)
}

// callsFromBranch pairs each llm_call node with the next llm_response node
// on the same branch, in the order they were recorded.
func callsFromBranch(ctx context.Context, store *dagstore.Store, branchID int64) ([]model.LLMCallDetail, error) {
	nodes, err := store.GetBranchNodes(ctx, nil, branchID)
	if err != nil {
		return nil, err
	}

	var calls []model.LLMCallDetail
	var pendingCall *model.ExecutionNode
	for i := range nodes {
		n := &nodes[i]
		switch n.ActionType {
		case model.ActionLLMCall:
			pendingCall = n
		case model.ActionLLMResponse:
			if pendingCall == nil {
				continue
			}
			calls = append(calls, callDetailFromNodes(len(calls), *pendingCall, *n))
			pendingCall = nil
		}
	}
	return calls, nil
}

func callDetailFromNodes(stepIndex int, call, response model.ExecutionNode) model.LLMCallDetail {
	provider, _ := call.Content.Get("provider")
	method, _ := call.Content.Get("method")
	modelName, _ := call.Content.Get("model")

	providerStr, _ := provider.(string)
	methodStr, _ := method.(string)
	modelStr, _ := modelName.(string)

	return model.LLMCallDetail{
		NodeID:        call.ID,
		StepIndex:     stepIndex,
		Provider:      providerStr,
		Method:        methodStr,
		Model:         modelStr,
		Fingerprint:   fingerprint.Compute(providerStr, methodStr, modelStr, call.Content),
		RequestParams: call.Content,
		ResponseData:  response.Content,
		DurationMs:    response.DurationMs,
	}
}
