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
	"time"

	"github.com/rohithputha/agentgraph/model"
)

const recordingColumns = `recording_id, name, user_id, session_id, branch_id, status,
	started_at, completed_at, step_count, error, config_json, metadata_json`

// InsertRecording persists a freshly created recording.
func (s *Store) InsertRecording(ctx context.Context, tx *sql.Tx, r *model.Recording) error {
	cfgJSON, err := docJSON(r.Config)
	if err != nil {
		return fmt.Errorf("dagstore: marshal recording config: %w", err)
	}
	metaJSON, err := docJSON(r.Metadata)
	if err != nil {
		return fmt.Errorf("dagstore: marshal recording metadata: %w", err)
	}
	query := s.rebind(`INSERT INTO at_recordings (` + recordingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = s.q(tx).ExecContext(ctx, query,
		r.RecordingID, r.Name, r.UserID, r.SessionID, r.BranchID, string(r.Status),
		r.StartedAt, nullableTime(r.CompletedAt), r.StepCount, nullableString(r.Error),
		cfgJSON, metaJSON,
	)
	if err != nil {
		return fmt.Errorf("dagstore: insert recording: %w", err)
	}
	return nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func scanRecording(row interface{ Scan(dest ...any) error }) (*model.Recording, error) {
	var r model.Recording
	var status string
	var completedAt sql.NullTime
	var errStr sql.NullString
	var cfgJSON, metaJSON sql.NullString

	if err := row.Scan(
		&r.RecordingID, &r.Name, &r.UserID, &r.SessionID, &r.BranchID, &status,
		&r.StartedAt, &completedAt, &r.StepCount, &errStr, &cfgJSON, &metaJSON,
	); err != nil {
		return nil, err
	}
	r.Status = model.RecordingStatus(status)
	if completedAt.Valid {
		v := completedAt.Time
		r.CompletedAt = &v
	}
	if errStr.Valid {
		v := errStr.String
		r.Error = &v
	}
	if cfgJSON.Valid {
		doc, err := model.DocumentFromJSON([]byte(cfgJSON.String))
		if err != nil {
			return nil, fmt.Errorf("unmarshal recording config: %w", err)
		}
		r.Config = doc
	}
	if metaJSON.Valid {
		doc, err := model.DocumentFromJSON([]byte(metaJSON.String))
		if err != nil {
			return nil, fmt.Errorf("unmarshal recording metadata: %w", err)
		}
		r.Metadata = doc
	}
	return &r, nil
}

// GetRecording fetches one recording by id.
func (s *Store) GetRecording(ctx context.Context, tx *sql.Tx, id string) (*model.Recording, error) {
	query := s.rebind(`SELECT ` + recordingColumns + ` FROM at_recordings WHERE recording_id = ?`)
	row := s.q(tx).QueryRowContext(ctx, query, id)
	r, err := scanRecording(row)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateRecordingStatus transitions a recording's lifecycle status.
func (s *Store) UpdateRecordingStatus(ctx context.Context, tx *sql.Tx, id string, status model.RecordingStatus, completedAt *time.Time, errMsg *string) error {
	query := s.rebind(`UPDATE at_recordings SET status = ?, completed_at = ?, error = ? WHERE recording_id = ?`)
	_, err := s.q(tx).ExecContext(ctx, query, string(status), nullableTime(completedAt), nullableString(errMsg), id)
	if err != nil {
		return fmt.Errorf("dagstore: update recording status: %w", err)
	}
	return nil
}

// IncrementRecordingStepCount bumps step_count by one and returns the
// StepIndex the caller should assign (the value before this increment).
func (s *Store) IncrementRecordingStepCount(ctx context.Context, tx *sql.Tx, id string) (int, error) {
	selectQuery := s.rebind(`SELECT step_count FROM at_recordings WHERE recording_id = ?`)
	var count int
	if err := s.q(tx).QueryRowContext(ctx, selectQuery, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("dagstore: read step count: %w", err)
	}
	updateQuery := s.rebind(`UPDATE at_recordings SET step_count = step_count + 1 WHERE recording_id = ?`)
	if _, err := s.q(tx).ExecContext(ctx, updateQuery, id); err != nil {
		return 0, fmt.Errorf("dagstore: increment step count: %w", err)
	}
	return count, nil
}

// ListInProgressRecordings returns recordings currently in_progress for an
// owner, used by the recording throttle.
func (s *Store) ListInProgressRecordings(ctx context.Context, tx *sql.Tx, userID, sessionID string) ([]model.Recording, error) {
	query := s.rebind(`SELECT ` + recordingColumns + ` FROM at_recordings
		WHERE user_id = ? AND session_id = ? AND status = ?`)
	rows, err := s.q(tx).QueryContext(ctx, query, userID, sessionID, string(model.RecordingInProgress))
	if err != nil {
		return nil, fmt.Errorf("dagstore: list in-progress recordings: %w", err)
	}
	defer rows.Close()
	var out []model.Recording
	for rows.Next() {
		r, err := scanRecording(rows)
		if err != nil {
			return nil, fmt.Errorf("dagstore: scan recording: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}
