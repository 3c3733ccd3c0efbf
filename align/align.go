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

// Package align pairs up a baseline and a replay sequence of LLM calls by
// their structural fingerprint, using a longest-common-subsequence backtrack
// so that an inserted or removed step doesn't desynchronise everything after
// it.
package align

import "github.com/rohithputha/agentgraph/model"

// Pair is one aligned slot: at least one of Baseline/Replay is non-nil.
type Pair struct {
	Status   model.AlignStatus
	Baseline *model.LLMCallDetail
	Replay   *model.LLMCallDetail
}

// Align runs LCS over fingerprints and backtracks into a slice of Pairs in
// baseline/replay order. Steps outside the common subsequence are emitted
// as AlignRemoved (baseline-only) or AlignAdded (replay-only).
func Align(baseline, replay []model.LLMCallDetail) []Pair {
	n, m := len(baseline), len(replay)

	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if baseline[i].Fingerprint == replay[j].Fingerprint {
				dp[i][j] = dp[i+1][j+1] + 1
			} else if dp[i+1][j] >= dp[i][j+1] {
				dp[i][j] = dp[i+1][j]
			} else {
				dp[i][j] = dp[i][j+1]
			}
		}
	}

	var pairs []Pair
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case baseline[i].Fingerprint == replay[j].Fingerprint:
			b, r := baseline[i], replay[j]
			pairs = append(pairs, Pair{Status: model.AlignMatched, Baseline: &b, Replay: &r})
			i++
			j++
		case dp[i+1][j] >= dp[i][j+1]:
			b := baseline[i]
			pairs = append(pairs, Pair{Status: model.AlignRemoved, Baseline: &b})
			i++
		default:
			r := replay[j]
			pairs = append(pairs, Pair{Status: model.AlignAdded, Replay: &r})
			j++
		}
	}
	for ; i < n; i++ {
		b := baseline[i]
		pairs = append(pairs, Pair{Status: model.AlignRemoved, Baseline: &b})
	}
	for ; j < m; j++ {
		r := replay[j]
		pairs = append(pairs, Pair{Status: model.AlignAdded, Replay: &r})
	}
	return pairs
}
