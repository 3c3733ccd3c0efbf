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

	"github.com/rohithputha/agentgraph/internal/obslog"
	"github.com/rohithputha/agentgraph/model"
)

// InsertNode appends one node and returns its assigned id.
func (s *Store) InsertNode(ctx context.Context, tx *sql.Tx, n *model.ExecutionNode) (int64, error) {
	contentJSON, err := docJSON(n.Content)
	if err != nil {
		return 0, fmt.Errorf("dagstore: marshal content: %w", err)
	}
	callerJSON, err := docJSON(n.CallerContext)
	if err != nil {
		return 0, fmt.Errorf("dagstore: marshal caller context: %w", err)
	}

	query := s.rebind(`INSERT INTO nodes
		(user_id, session_id, parent_id, branch_id, checkpoint_sha, action_type,
		 content_json, triggered_by, caller_context_json, state_hash, duration_ms,
		 token_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	res, err := s.q(tx).ExecContext(ctx, query,
		n.UserID, n.SessionID, nullableInt64(n.ParentID), n.BranchID,
		nullableString(n.CheckpointSHA), string(n.ActionType), contentJSON,
		string(n.TriggeredBy), callerJSON, nullableString(n.StateHash),
		nullableInt64(n.DurationMs), nullableInt64(n.TokenCount), n.Timestamp,
	)
	if err != nil {
		return 0, fmt.Errorf("dagstore: insert node: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("dagstore: resolve inserted node id: %w", err)
	}
	return id, nil
}

func scanNode(row interface {
	Scan(dest ...any) error
}) (*model.ExecutionNode, error) {
	var n model.ExecutionNode
	var parentID sql.NullInt64
	var checkpointSHA, stateHash sql.NullString
	var durationMs, tokenCount sql.NullInt64
	var contentJSON, callerJSON sql.NullString
	var actionType, triggeredBy string

	if err := row.Scan(
		&n.ID, &n.UserID, &n.SessionID, &parentID, &n.BranchID, &checkpointSHA,
		&actionType, &contentJSON, &triggeredBy, &callerJSON, &stateHash,
		&durationMs, &tokenCount, &n.Timestamp,
	); err != nil {
		return nil, err
	}

	n.ActionType = model.ActionType(actionType)
	n.TriggeredBy = model.CallerType(triggeredBy)
	if parentID.Valid {
		v := parentID.Int64
		n.ParentID = &v
	}
	if checkpointSHA.Valid {
		v := checkpointSHA.String
		n.CheckpointSHA = &v
	}
	if stateHash.Valid {
		v := stateHash.String
		n.StateHash = &v
	}
	if durationMs.Valid {
		v := durationMs.Int64
		n.DurationMs = &v
	}
	if tokenCount.Valid {
		v := tokenCount.Int64
		n.TokenCount = &v
	}
	if contentJSON.Valid {
		doc, err := model.DocumentFromJSON([]byte(contentJSON.String))
		if err != nil {
			return nil, fmt.Errorf("dagstore: unmarshal content: %w", err)
		}
		n.Content = doc
	}
	if callerJSON.Valid {
		doc, err := model.DocumentFromJSON([]byte(callerJSON.String))
		if err != nil {
			return nil, fmt.Errorf("dagstore: unmarshal caller context: %w", err)
		}
		n.CallerContext = doc
	}
	return &n, nil
}

const nodeColumns = `id, user_id, session_id, parent_id, branch_id, checkpoint_sha,
	action_type, content_json, triggered_by, caller_context_json, state_hash,
	duration_ms, token_count, created_at`

// GetNode fetches one node by id, or (nil, sql.ErrNoRows).
func (s *Store) GetNode(ctx context.Context, tx *sql.Tx, id int64) (*model.ExecutionNode, error) {
	query := s.rebind(`SELECT ` + nodeColumns + ` FROM nodes WHERE id = ?`)
	row := s.q(tx).QueryRowContext(ctx, query, id)
	n, err := scanNode(row)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// GetPathToRoot walks ParentID links from nodeID back to the root,
// returning nodes root-first. It stops (without erroring) at a broken
// link, logging the defect rather than panicking.
func (s *Store) GetPathToRoot(ctx context.Context, tx *sql.Tx, nodeID int64) ([]model.ExecutionNode, error) {
	var chain []model.ExecutionNode
	cur := &nodeID
	seen := make(map[int64]bool)
	for cur != nil {
		if seen[*cur] {
			break // defensive: a cycle would otherwise loop forever
		}
		seen[*cur] = true
		n, err := s.GetNode(ctx, tx, *cur)
		if err == sql.ErrNoRows {
			obslog.Default().Warn("dagstore: path to root stopped at missing node", "node_id", *cur)
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dagstore: get path to root: %w", err)
		}
		chain = append(chain, *n)
		cur = n.ParentID
	}
	// reverse to root-first
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// GetBranchNodes returns every node belonging to branchID, oldest first.
func (s *Store) GetBranchNodes(ctx context.Context, tx *sql.Tx, branchID int64) ([]model.ExecutionNode, error) {
	query := s.rebind(`SELECT ` + nodeColumns + ` FROM nodes WHERE branch_id = ? ORDER BY id ASC`)
	rows, err := s.q(tx).QueryContext(ctx, query, branchID)
	if err != nil {
		return nil, fmt.Errorf("dagstore: list branch nodes: %w", err)
	}
	defer rows.Close()

	var out []model.ExecutionNode
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("dagstore: scan branch node: %w", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}
