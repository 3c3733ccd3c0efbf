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

package dagstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rohithputha/agentgraph/model"
)

// InsertComparison persists a ComparisonResult and its per-step rows.
func (s *Store) InsertComparison(ctx context.Context, tx *sql.Tx, r *model.ComparisonResult) error {
	query := s.rebind(`INSERT INTO at_comparisons
		(comparison_id, baseline_id, replay_id, created_at, total, matched, diverged,
		 added, removed, cascade_count, root_cause_index, overall_pass)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	var rootCause any
	if r.RootCauseIndex != nil {
		rootCause = *r.RootCauseIndex
	}
	if _, err := s.q(tx).ExecContext(ctx, query,
		r.ComparisonID, r.BaselineID, r.ReplayID, r.CreatedAt, r.Total, r.Matched,
		r.Diverged, r.Added, r.Removed, r.CascadeCount, rootCause, r.OverallPass,
	); err != nil {
		return fmt.Errorf("dagstore: insert comparison: %w", err)
	}

	stepQuery := s.rebind(`INSERT INTO at_step_comparisons
		(comparison_id, step_index, status, match_type, similarity_score, diff_summary,
		 baseline_step_id, replay_step_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	for _, step := range r.Steps {
		var matchType any
		if step.MatchType != nil {
			matchType = string(*step.MatchType)
		}
		var baselineStepID, replayStepID any
		if step.BaselineStep != nil {
			baselineStepID = step.BaselineStep.ID
		}
		if step.ReplayStep != nil {
			replayStepID = step.ReplayStep.ID
		}
		if _, err := s.q(tx).ExecContext(ctx, stepQuery,
			r.ComparisonID, step.Index, string(step.Status), matchType, step.SimilarityScore,
			nullableString(step.DiffSummary), baselineStepID, replayStepID,
		); err != nil {
			return fmt.Errorf("dagstore: insert step comparison: %w", err)
		}
	}
	return nil
}

const comparisonColumns = `comparison_id, baseline_id, replay_id, created_at, total, matched,
	diverged, added, removed, cascade_count, root_cause_index, overall_pass`

func scanComparison(row interface{ Scan(dest ...any) error }) (*model.ComparisonResult, error) {
	var r model.ComparisonResult
	var rootCause sql.NullInt64
	if err := row.Scan(
		&r.ComparisonID, &r.BaselineID, &r.ReplayID, &r.CreatedAt, &r.Total, &r.Matched,
		&r.Diverged, &r.Added, &r.Removed, &r.CascadeCount, &rootCause, &r.OverallPass,
	); err != nil {
		return nil, err
	}
	if rootCause.Valid {
		v := int(rootCause.Int64)
		r.RootCauseIndex = &v
	}
	return &r, nil
}

// GetComparison fetches a comparison and its steps by id.
func (s *Store) GetComparison(ctx context.Context, tx *sql.Tx, id string) (*model.ComparisonResult, error) {
	query := s.rebind(`SELECT ` + comparisonColumns + ` FROM at_comparisons WHERE comparison_id = ?`)
	row := s.q(tx).QueryRowContext(ctx, query, id)
	r, err := scanComparison(row)
	if err != nil {
		return nil, err
	}

	stepQuery := s.rebind(`SELECT step_index, status, match_type, similarity_score, diff_summary
		FROM at_step_comparisons WHERE comparison_id = ? ORDER BY step_index ASC`)
	rows, err := s.q(tx).QueryContext(ctx, stepQuery, id)
	if err != nil {
		return nil, fmt.Errorf("dagstore: list step comparisons: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var step model.StepComparison
		var status string
		var matchType, diffSummary sql.NullString
		if err := rows.Scan(&step.Index, &status, &matchType, &step.SimilarityScore, &diffSummary); err != nil {
			return nil, fmt.Errorf("dagstore: scan step comparison: %w", err)
		}
		step.Status = model.StepStatus(status)
		if matchType.Valid {
			mt := model.MatchType(matchType.String)
			step.MatchType = &mt
		}
		if diffSummary.Valid {
			v := diffSummary.String
			step.DiffSummary = &v
		}
		r.Steps = append(r.Steps, step)
	}
	return r, rows.Err()
}

// ListComparisons returns every comparison recorded against a baseline, newest first.
func (s *Store) ListComparisons(ctx context.Context, tx *sql.Tx, baselineID string) ([]model.ComparisonResult, error) {
	query := s.rebind(`SELECT ` + comparisonColumns + ` FROM at_comparisons WHERE baseline_id = ? ORDER BY created_at DESC`)
	rows, err := s.q(tx).QueryContext(ctx, query, baselineID)
	if err != nil {
		return nil, fmt.Errorf("dagstore: list comparisons: %w", err)
	}
	defer rows.Close()

	var out []model.ComparisonResult
	for rows.Next() {
		r, err := scanComparison(rows)
		if err != nil {
			return nil, fmt.Errorf("dagstore: scan comparison: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}
