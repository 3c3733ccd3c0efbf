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

const branchColumns = `branch_id, user_id, session_id, name, head_node_id, base_node_id,
	status, intent, status_reason, created_by, created_at, tokens_used, time_elapsed_seconds`

// InsertBranch creates a branch and returns its assigned id.
func (s *Store) InsertBranch(ctx context.Context, tx *sql.Tx, b *model.Branch) (int64, error) {
	query := s.rebind(`INSERT INTO branches
		(user_id, session_id, name, head_node_id, base_node_id, status, intent,
		 status_reason, created_by, created_at, tokens_used, time_elapsed_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	res, err := s.q(tx).ExecContext(ctx, query,
		b.UserID, b.SessionID, b.Name, nullableInt64(b.HeadNodeID), nullableInt64(b.BaseNodeID),
		string(b.Status), b.Intent, nullableString(b.StatusReason), b.CreatedBy, b.CreatedAt,
		b.TokensUsed, b.TimeElapsedSeconds,
	)
	if err != nil {
		return 0, fmt.Errorf("dagstore: insert branch: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("dagstore: resolve inserted branch id: %w", err)
	}
	return id, nil
}

func scanBranch(row interface{ Scan(dest ...any) error }) (*model.Branch, error) {
	var b model.Branch
	var headNodeID, baseNodeID sql.NullInt64
	var statusReason sql.NullString
	var status string

	if err := row.Scan(
		&b.ID, &b.UserID, &b.SessionID, &b.Name, &headNodeID, &baseNodeID,
		&status, &b.Intent, &statusReason, &b.CreatedBy, &b.CreatedAt,
		&b.TokensUsed, &b.TimeElapsedSeconds,
	); err != nil {
		return nil, err
	}
	b.Status = model.BranchStatus(status)
	if headNodeID.Valid {
		v := headNodeID.Int64
		b.HeadNodeID = &v
	}
	if baseNodeID.Valid {
		v := baseNodeID.Int64
		b.BaseNodeID = &v
	}
	if statusReason.Valid {
		v := statusReason.String
		b.StatusReason = &v
	}
	return &b, nil
}

// GetBranch fetches one branch by (owner, name).
func (s *Store) GetBranch(ctx context.Context, tx *sql.Tx, userID, sessionID, name string) (*model.Branch, error) {
	query := s.rebind(`SELECT ` + branchColumns + ` FROM branches WHERE user_id = ? AND session_id = ? AND name = ?`)
	row := s.q(tx).QueryRowContext(ctx, query, userID, sessionID, name)
	return scanBranch(row)
}

// GetBranchByID fetches one branch by its id.
func (s *Store) GetBranchByID(ctx context.Context, tx *sql.Tx, id int64) (*model.Branch, error) {
	query := s.rebind(`SELECT ` + branchColumns + ` FROM branches WHERE branch_id = ?`)
	row := s.q(tx).QueryRowContext(ctx, query, id)
	return scanBranch(row)
}

// ListBranches returns every branch for an owner, newest first.
func (s *Store) ListBranches(ctx context.Context, tx *sql.Tx, userID, sessionID string) ([]model.Branch, error) {
	query := s.rebind(`SELECT ` + branchColumns + ` FROM branches WHERE user_id = ? AND session_id = ? ORDER BY branch_id DESC`)
	rows, err := s.q(tx).QueryContext(ctx, query, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("dagstore: list branches: %w", err)
	}
	defer rows.Close()

	var out []model.Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, fmt.Errorf("dagstore: scan branch: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// GetActiveBranch returns the most recently created active branch for an
// owner, or (nil, nil) if there is none.
func (s *Store) GetActiveBranch(ctx context.Context, tx *sql.Tx, userID, sessionID string) (*model.Branch, error) {
	query := s.rebind(`SELECT ` + branchColumns + ` FROM branches
		WHERE user_id = ? AND session_id = ? AND status = ?
		ORDER BY branch_id DESC LIMIT 1`)
	row := s.q(tx).QueryRowContext(ctx, query, userID, sessionID, string(model.BranchActive))
	b, err := scanBranch(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dagstore: get active branch: %w", err)
	}
	return b, nil
}

// UpdateBranchHead advances a branch's head pointer.
func (s *Store) UpdateBranchHead(ctx context.Context, tx *sql.Tx, branchID, nodeID int64) error {
	query := s.rebind(`UPDATE branches SET head_node_id = ? WHERE branch_id = ?`)
	_, err := s.q(tx).ExecContext(ctx, query, nodeID, branchID)
	if err != nil {
		return fmt.Errorf("dagstore: update branch head: %w", err)
	}
	return nil
}

// UpdateBranchStatus transitions a branch's status, optionally recording a
// human-readable reason.
func (s *Store) UpdateBranchStatus(ctx context.Context, tx *sql.Tx, branchID int64, status model.BranchStatus, reason *string) error {
	query := s.rebind(`UPDATE branches SET status = ?, status_reason = ? WHERE branch_id = ?`)
	_, err := s.q(tx).ExecContext(ctx, query, string(status), nullableString(reason), branchID)
	if err != nil {
		return fmt.Errorf("dagstore: update branch status: %w", err)
	}
	return nil
}
