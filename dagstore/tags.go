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

const tagColumns = `user_id, session_id, tag_name, tag_type, node_id, created_at, updated_at`

// UpsertTag creates or replaces a tag (baselines are re-pointed, not
// duplicated, when SetBaseline is called again under the same name).
func (s *Store) UpsertTag(ctx context.Context, tx *sql.Tx, t *model.Tag) error {
	var query string
	switch s.dialect {
	case "postgres":
		query = s.rebind(`INSERT INTO at_tags (` + tagColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id, session_id, tag_name) DO UPDATE SET
			tag_type = EXCLUDED.tag_type, node_id = EXCLUDED.node_id, updated_at = EXCLUDED.updated_at`)
	default:
		query = s.rebind(`INSERT OR REPLACE INTO at_tags (` + tagColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	}
	_, err := s.q(tx).ExecContext(ctx, query,
		t.UserID, t.SessionID, t.TagName, string(t.TagType), t.NodeID, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("dagstore: upsert tag: %w", err)
	}
	return nil
}

func scanTag(row interface{ Scan(dest ...any) error }) (*model.Tag, error) {
	var t model.Tag
	var tagType string
	if err := row.Scan(&t.UserID, &t.SessionID, &t.TagName, &tagType, &t.NodeID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.TagType = model.TagType(tagType)
	return &t, nil
}

// GetTag fetches a tag by (owner, name).
func (s *Store) GetTag(ctx context.Context, tx *sql.Tx, userID, sessionID, name string) (*model.Tag, error) {
	query := s.rebind(`SELECT ` + tagColumns + ` FROM at_tags WHERE user_id = ? AND session_id = ? AND tag_name = ?`)
	row := s.q(tx).QueryRowContext(ctx, query, userID, sessionID, name)
	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTagsByType returns every tag of a given type for an owner.
func (s *Store) ListTagsByType(ctx context.Context, tx *sql.Tx, userID, sessionID string, tagType model.TagType) ([]model.Tag, error) {
	query := s.rebind(`SELECT ` + tagColumns + ` FROM at_tags WHERE user_id = ? AND session_id = ? AND tag_type = ? ORDER BY tag_name ASC`)
	rows, err := s.q(tx).QueryContext(ctx, query, userID, sessionID, string(tagType))
	if err != nil {
		return nil, fmt.Errorf("dagstore: list tags: %w", err)
	}
	defer rows.Close()

	var out []model.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("dagstore: scan tag: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// DeleteTag removes a tag by (owner, name).
func (s *Store) DeleteTag(ctx context.Context, tx *sql.Tx, userID, sessionID, name string) error {
	query := s.rebind(`DELETE FROM at_tags WHERE user_id = ? AND session_id = ? AND tag_name = ?`)
	_, err := s.q(tx).ExecContext(ctx, query, userID, sessionID, name)
	if err != nil {
		return fmt.Errorf("dagstore: delete tag: %w", err)
	}
	return nil
}
