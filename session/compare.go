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

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rohithputha/agentgraph/model"
)

// CompareRecordings aligns and scores a baseline recording against a
// replay recording, persisting the result.
func (s *Session) CompareRecordings(ctx context.Context, baselineID, replayID string) (*model.ComparisonResult, error) {
	baseline, err := s.store.ListLLMCallDetailsByRecording(ctx, nil, baselineID)
	if err != nil {
		return nil, fmt.Errorf("session: load baseline calls: %w", err)
	}
	replay, err := s.store.ListLLMCallDetailsByRecording(ctx, nil, replayID)
	if err != nil {
		return nil, fmt.Errorf("session: load replay calls: %w", err)
	}

	result, err := s.comparator.Compare(ctx, uuid.NewString(), baselineID, replayID, baseline, replay)
	if err != nil {
		return nil, fmt.Errorf("session: compare recordings: %w", err)
	}
	result.CreatedAt = time.Now()

	if err := s.store.InsertComparison(ctx, nil, result); err != nil {
		return nil, fmt.Errorf("session: persist comparison: %w", err)
	}
	verdict := "pass"
	if !result.OverallPass {
		verdict = "fail"
	}
	s.obs.IncCounter("agentgit_comparisons_total", verdict)
	return result, nil
}

// ComparePaths compares two live branches directly, without a formal
// recording on either side.
func (s *Session) ComparePaths(ctx context.Context, userID, sessionID, branchA, branchB string) (*model.ComparisonResult, error) {
	a, err := s.store.GetBranch(ctx, nil, userID, sessionID, branchA)
	if err != nil {
		return nil, fmt.Errorf("session: load branch %s: %w", branchA, err)
	}
	b, err := s.store.GetBranch(ctx, nil, userID, sessionID, branchB)
	if err != nil {
		return nil, fmt.Errorf("session: load branch %s: %w", branchB, err)
	}
	result, err := s.comparator.ComparePaths(ctx, s.store, uuid.NewString(), *a, *b)
	if err != nil {
		return nil, fmt.Errorf("session: compare paths: %w", err)
	}
	result.CreatedAt = time.Now()
	return result, nil
}

// GetComparison fetches a previously persisted comparison by id.
func (s *Session) GetComparison(ctx context.Context, comparisonID string) (*model.ComparisonResult, error) {
	return s.store.GetComparison(ctx, nil, comparisonID)
}
