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
	"encoding/json"
	"fmt"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/rohithputha/agentgraph/model"
)

const checkpointColumns = `hash, filesystem_ref, user_id, session_id, agent_memory_json,
	conversation_history_json, files_changed_json, compressed, size_bytes, label, created_at`

// InsertCheckpoint persists checkpoint metadata, keyed by its content hash.
func (s *Store) InsertCheckpoint(ctx context.Context, tx *sql.Tx, c *model.Checkpoint) error {
	memJSON, err := docJSON(c.AgentMemory)
	if err != nil {
		return fmt.Errorf("dagstore: marshal agent memory: %w", err)
	}
	convJSON, err := json.Marshal(c.ConversationHistory)
	if err != nil {
		return fmt.Errorf("dagstore: marshal conversation history: %w", err)
	}
	filesJSON, err := json.Marshal(c.FilesChanged)
	if err != nil {
		return fmt.Errorf("dagstore: marshal files changed: %w", err)
	}

	query := s.rebind(`INSERT INTO checkpoints
		(hash, filesystem_ref, user_id, session_id, agent_memory_json,
		 conversation_history_json, files_changed_json, compressed, size_bytes, label, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err = s.q(tx).ExecContext(ctx, query,
		c.Hash, c.FilesystemRef, c.UserID, c.SessionID, memJSON, string(convJSON),
		string(filesJSON), c.Compressed, c.SizeBytes, nullableString(c.Label), c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("dagstore: insert checkpoint: %w", err)
	}
	return nil
}

func scanCheckpoint(row interface{ Scan(dest ...any) error }) (*model.Checkpoint, error) {
	var c model.Checkpoint
	var memJSON, convJSON, filesJSON sql.NullString
	var label sql.NullString

	if err := row.Scan(
		&c.Hash, &c.FilesystemRef, &c.UserID, &c.SessionID, &memJSON,
		&convJSON, &filesJSON, &c.Compressed, &c.SizeBytes, &label, &c.CreatedAt,
	); err != nil {
		return nil, err
	}
	if label.Valid {
		v := label.String
		c.Label = &v
	}
	if memJSON.Valid {
		doc, err := model.DocumentFromJSON([]byte(memJSON.String))
		if err != nil {
			return nil, fmt.Errorf("unmarshal agent memory: %w", err)
		}
		c.AgentMemory = doc
	}
	if convJSON.Valid && convJSON.String != "" {
		var msgs []a2a.Message
		if err := json.Unmarshal([]byte(convJSON.String), &msgs); err != nil {
			return nil, fmt.Errorf("unmarshal conversation history: %w", err)
		}
		c.ConversationHistory = msgs
	}
	if filesJSON.Valid && filesJSON.String != "" {
		var files []string
		if err := json.Unmarshal([]byte(filesJSON.String), &files); err != nil {
			return nil, fmt.Errorf("unmarshal files changed: %w", err)
		}
		c.FilesChanged = files
	}
	return &c, nil
}

// GetCheckpoint fetches a checkpoint by content hash.
func (s *Store) GetCheckpoint(ctx context.Context, tx *sql.Tx, hash string) (*model.Checkpoint, error) {
	query := s.rebind(`SELECT ` + checkpointColumns + ` FROM checkpoints WHERE hash = ?`)
	row := s.q(tx).QueryRowContext(ctx, query, hash)
	c, err := scanCheckpoint(row)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetLatestCheckpoint returns the owner's most recently created checkpoint,
// used to resolve the parent commit SHA when chaining a fresh snapshot.
func (s *Store) GetLatestCheckpoint(ctx context.Context, tx *sql.Tx, userID, sessionID string) (*model.Checkpoint, error) {
	query := s.rebind(`SELECT ` + checkpointColumns + ` FROM checkpoints
		WHERE user_id = ? AND session_id = ? ORDER BY created_at DESC LIMIT 1`)
	row := s.q(tx).QueryRowContext(ctx, query, userID, sessionID)
	c, err := scanCheckpoint(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListCheckpoints returns every checkpoint for an owner, newest first.
func (s *Store) ListCheckpoints(ctx context.Context, tx *sql.Tx, userID, sessionID string) ([]model.Checkpoint, error) {
	query := s.rebind(`SELECT ` + checkpointColumns + ` FROM checkpoints
		WHERE user_id = ? AND session_id = ? ORDER BY created_at DESC`)
	rows, err := s.q(tx).QueryContext(ctx, query, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("dagstore: list checkpoints: %w", err)
	}
	defer rows.Close()

	var out []model.Checkpoint
	for rows.Next() {
		c, err := scanCheckpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("dagstore: scan checkpoint: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}
