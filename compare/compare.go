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

// Package compare turns two aligned sequences of recorded LLM calls into a
// ComparisonResult: per-step verdicts, a similarity score per step, and the
// cascade/root-cause marking that follows from the first divergence.
package compare

import (
	"context"
	"fmt"
	"strings"

	"github.com/rohithputha/agentgraph/align"
	"github.com/rohithputha/agentgraph/compare/embed"
	"github.com/rohithputha/agentgraph/fingerprint"
	"github.com/rohithputha/agentgraph/model"
)

// Comparator scores aligned steps and assembles a ComparisonResult.
type Comparator struct {
	similarity   embed.Similarity
	threshold    float64
	ignoreFields map[string]bool
}

// New builds a Comparator. similarity may be nil, in which case the
// semantic score is 0 for every pair; since the combined score is the
// lower of the structural and semantic scores, any pair whose responses
// are not byte-identical is then a mismatch, and no string-based fallback
// score is computed in its place. ignoreFields names keys
// (matched at any depth by their final path segment) to drop before
// structural scoring, for volatile fields like request ids or timestamps.
func New(similarity embed.Similarity, threshold float64, ignoreFields ...string) *Comparator {
	if threshold <= 0 {
		threshold = 0.85
	}
	ignore := make(map[string]bool, len(ignoreFields))
	for _, f := range ignoreFields {
		ignore[f] = true
	}
	return &Comparator{similarity: similarity, threshold: threshold, ignoreFields: ignore}
}

// Compare aligns baseline and replay by fingerprint, scores every pair, and
// marks cascades following the first divergence.
func (c *Comparator) Compare(ctx context.Context, comparisonID, baselineID, replayID string, baseline, replay []model.LLMCallDetail) (*model.ComparisonResult, error) {
	pairs := align.Align(baseline, replay)

	steps := make([]model.StepComparison, len(pairs))
	for i, p := range pairs {
		step, err := c.scoreStep(ctx, i, p)
		if err != nil {
			return nil, fmt.Errorf("compare: score step %d: %w", i, err)
		}
		steps[i] = step
	}

	MarkCascades(steps)

	result := &model.ComparisonResult{
		ComparisonID: comparisonID,
		BaselineID:   baselineID,
		ReplayID:     replayID,
		Total:        len(steps),
		Steps:        steps,
	}
	for i, s := range steps {
		switch s.Status {
		case model.StepMatch:
			result.Matched++
		case model.StepDiverge:
			result.Diverged++
		case model.StepAdd:
			result.Added++
		case model.StepRemove:
			result.Removed++
		case model.StepCascade:
			result.CascadeCount++
		}
		if result.RootCauseIndex == nil {
			switch s.Status {
			case model.StepDiverge, model.StepAdd, model.StepRemove:
				idx := i
				result.RootCauseIndex = &idx
			}
		}
	}
	result.OverallPass = result.Diverged == 0 && result.Added == 0 && result.Removed == 0 && result.CascadeCount == 0
	return result, nil
}

func (c *Comparator) scoreStep(ctx context.Context, index int, p align.Pair) (model.StepComparison, error) {
	step := model.StepComparison{Index: index, BaselineStep: p.Baseline, ReplayStep: p.Replay}

	switch p.Status {
	case model.AlignAdded:
		step.Status = model.StepAdd
		return step, nil
	case model.AlignRemoved:
		step.Status = model.StepRemove
		return step, nil
	}

	// model.AlignMatched: same structural fingerprint, score how close the
	// actual request/response content is.
	match, score, err := c.classify(ctx, *p.Baseline, *p.Replay)
	if err != nil {
		return step, err
	}
	step.MatchType = &match
	step.SimilarityScore = score
	if match == model.MatchExact || match == model.MatchSimilar {
		step.Status = model.StepMatch
	} else {
		step.Status = model.StepDiverge
	}
	return step, nil
}

func (c *Comparator) classify(ctx context.Context, a, b model.LLMCallDetail) (model.MatchType, float64, error) {
	exactA, err := fingerprint.ResponseHash(a.ResponseData)
	if err != nil {
		return model.MatchUnknown, 0, err
	}
	exactB, err := fingerprint.ResponseHash(b.ResponseData)
	if err != nil {
		return model.MatchUnknown, 0, err
	}
	if exactA == exactB {
		return model.MatchExact, 1.0, nil
	}

	structural := structuralScore(a.ResponseData, b.ResponseData, c.ignoreFields)

	semantic := 0.0
	if c.similarity != nil {
		textA := extractSemanticText(a.ResponseData)
		textB := extractSemanticText(b.ResponseData)
		if textA != "" && textB != "" {
			score, err := c.similarity.Score(ctx, textA, textB)
			if err != nil {
				return model.MatchUnknown, 0, fmt.Errorf("compare: semantic score: %w", err)
			}
			semantic = score
		}
	}

	combined := structural
	if semantic < combined {
		combined = semantic
	}
	if combined >= c.threshold {
		return model.MatchSimilar, combined, nil
	}
	return model.MatchMismatch, combined, nil
}

// extractSemanticText recursively collects every string value reachable
// under a "content" or "text" key, in traversal order, and joins them with
// spaces, giving the semantic similarity backend free-text to embed while
// leaving structural fields (roles, ids, tool names) out of the picture.
func extractSemanticText(d model.Document) string {
	var parts []string
	collectSemanticText(map[string]any(d), false, &parts)
	return strings.Join(parts, " ")
}

func collectSemanticText(v any, underTextKey bool, parts *[]string) {
	switch val := v.(type) {
	case map[string]any:
		for key, child := range val {
			keyed := underTextKey || key == "content" || key == "text"
			collectSemanticText(child, keyed, parts)
		}
	case []any:
		for _, child := range val {
			collectSemanticText(child, underTextKey, parts)
		}
	case string:
		if underTextKey && val != "" {
			*parts = append(*parts, val)
		}
	}
}
