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

// InsertLLMCallDetail persists a sidecar row for an LLM_CALL_END node and
// returns its assigned id.
func (s *Store) InsertLLMCallDetail(ctx context.Context, tx *sql.Tx, d *model.LLMCallDetail) (int64, error) {
	reqJSON, err := docJSON(d.RequestParams)
	if err != nil {
		return 0, fmt.Errorf("dagstore: marshal request params: %w", err)
	}
	respJSON, err := docJSON(d.ResponseData)
	if err != nil {
		return 0, fmt.Errorf("dagstore: marshal response data: %w", err)
	}
	metaJSON, err := docJSON(d.Metadata)
	if err != nil {
		return 0, fmt.Errorf("dagstore: marshal metadata: %w", err)
	}

	var promptTokens, completionTokens, totalTokens *int64
	if d.TokenUsage != nil {
		p, c, t := d.TokenUsage.PromptTokens, d.TokenUsage.CompletionTokens, d.TokenUsage.TotalTokens
		promptTokens, completionTokens, totalTokens = &p, &c, &t
	}

	query := s.rebind(`INSERT INTO at_llm_call_details
		(node_id, recording_id, step_index, provider, method, model, fingerprint,
		 request_params_json, response_data_json, is_streaming, stream_id, duration_ms,
		 prompt_tokens, completion_tokens, total_tokens, error, metadata_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	res, err := s.q(tx).ExecContext(ctx, query,
		d.NodeID, d.RecordingID, d.StepIndex, d.Provider, d.Method, d.Model, d.Fingerprint,
		reqJSON, respJSON, d.IsStreaming, nullableString(d.StreamID), nullableInt64(d.DurationMs),
		nullableInt64(promptTokens), nullableInt64(completionTokens), nullableInt64(totalTokens),
		nullableString(d.Error), metaJSON,
	)
	if err != nil {
		return 0, fmt.Errorf("dagstore: insert llm call detail: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("dagstore: resolve inserted llm call detail id: %w", err)
	}
	return id, nil
}

const llmCallDetailColumns = `id, node_id, recording_id, step_index, provider, method, model,
	fingerprint, request_params_json, response_data_json, is_streaming, stream_id, duration_ms,
	prompt_tokens, completion_tokens, total_tokens, error, metadata_json`

func scanLLMCallDetail(row interface{ Scan(dest ...any) error }) (*model.LLMCallDetail, error) {
	var d model.LLMCallDetail
	var streamID, errStr sql.NullString
	var durationMs sql.NullInt64
	var promptTokens, completionTokens, totalTokens sql.NullInt64
	var reqJSON, respJSON, metaJSON sql.NullString

	if err := row.Scan(
		&d.ID, &d.NodeID, &d.RecordingID, &d.StepIndex, &d.Provider, &d.Method, &d.Model,
		&d.Fingerprint, &reqJSON, &respJSON, &d.IsStreaming, &streamID, &durationMs,
		&promptTokens, &completionTokens, &totalTokens, &errStr, &metaJSON,
	); err != nil {
		return nil, err
	}
	if streamID.Valid {
		v := streamID.String
		d.StreamID = &v
	}
	if errStr.Valid {
		v := errStr.String
		d.Error = &v
	}
	if durationMs.Valid {
		v := durationMs.Int64
		d.DurationMs = &v
	}
	if promptTokens.Valid || completionTokens.Valid || totalTokens.Valid {
		d.TokenUsage = &model.TokenUsage{
			PromptTokens:     promptTokens.Int64,
			CompletionTokens: completionTokens.Int64,
			TotalTokens:      totalTokens.Int64,
		}
	}
	if reqJSON.Valid {
		doc, err := model.DocumentFromJSON([]byte(reqJSON.String))
		if err != nil {
			return nil, fmt.Errorf("unmarshal request params: %w", err)
		}
		d.RequestParams = doc
	}
	if respJSON.Valid {
		doc, err := model.DocumentFromJSON([]byte(respJSON.String))
		if err != nil {
			return nil, fmt.Errorf("unmarshal response data: %w", err)
		}
		d.ResponseData = doc
	}
	if metaJSON.Valid {
		doc, err := model.DocumentFromJSON([]byte(metaJSON.String))
		if err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
		d.Metadata = doc
	}
	return &d, nil
}

// ListLLMCallDetailsByRecording returns a recording's sidecars in StepIndex order.
func (s *Store) ListLLMCallDetailsByRecording(ctx context.Context, tx *sql.Tx, recordingID string) ([]model.LLMCallDetail, error) {
	query := s.rebind(`SELECT ` + llmCallDetailColumns + ` FROM at_llm_call_details
		WHERE recording_id = ? ORDER BY step_index ASC`)
	rows, err := s.q(tx).QueryContext(ctx, query, recordingID)
	if err != nil {
		return nil, fmt.Errorf("dagstore: list llm call details: %w", err)
	}
	defer rows.Close()

	var out []model.LLMCallDetail
	for rows.Next() {
		d, err := scanLLMCallDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("dagstore: scan llm call detail: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}
