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

package recording

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rohithputha/agentgraph/dagstore"
	"github.com/rohithputha/agentgraph/fingerprint"
	"github.com/rohithputha/agentgraph/model"
)

// Manager starts, feeds, and closes recordings. It holds no per-recording
// state itself: every operation re-reads the recording row, so a manager
// is safe to share across owners and across process restarts.
type Manager struct {
	store    *dagstore.Store
	throttle *Throttle
}

// New builds a Manager over store, throttling concurrent recordings per
// owner via throttle.
func New(store *dagstore.Store, throttle *Throttle) *Manager {
	return &Manager{store: store, throttle: throttle}
}

// Start creates a new branch dedicated to the recording and an at_recordings
// row tracking it, refusing if the owner already has maxInFlight recordings
// in progress.
func (m *Manager) Start(ctx context.Context, tx *sql.Tx, userID, sessionID, name string, cfg model.Document) (*model.Recording, error) {
	ok, err := m.throttle.Allow(ctx, tx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("recording: owner %s/%s already has the maximum number of recordings in progress", userID, sessionID)
	}

	branch := &model.Branch{
		UserID:    userID,
		SessionID: sessionID,
		Name:      name,
		Status:    model.BranchActive,
		Intent:    "recording",
		CreatedBy: "recording.Manager",
		CreatedAt: time.Now(),
	}
	branchID, err := m.store.InsertBranch(ctx, tx, branch)
	if err != nil {
		return nil, fmt.Errorf("recording: create branch: %w", err)
	}

	rec := &model.Recording{
		RecordingID: uuid.NewString(),
		Name:        name,
		UserID:      userID,
		SessionID:   sessionID,
		BranchID:    branchID,
		Status:      model.RecordingInProgress,
		StartedAt:   time.Now(),
		Config:      cfg,
	}
	if err := m.store.InsertRecording(ctx, tx, rec); err != nil {
		return nil, fmt.Errorf("recording: create recording row: %w", err)
	}
	return rec, nil
}

// RecordCall writes one LLM-call sidecar row against recordingID,
// computing the call's structural fingerprint from req.
func (m *Manager) RecordCall(ctx context.Context, tx *sql.Tx, recordingID string, nodeID int64, provider, method, modelName string, req, resp model.Document, durationMs *int64, usage *model.TokenUsage, callErr *string) (*model.LLMCallDetail, error) {
	stepIndex, err := m.store.IncrementRecordingStepCount(ctx, tx, recordingID)
	if err != nil {
		return nil, fmt.Errorf("recording: allocate step index: %w", err)
	}

	detail := &model.LLMCallDetail{
		NodeID:        nodeID,
		RecordingID:   recordingID,
		StepIndex:     stepIndex,
		Provider:      provider,
		Method:        method,
		Model:         modelName,
		Fingerprint:   fingerprint.Compute(provider, method, modelName, req),
		RequestParams: req,
		ResponseData:  resp,
		DurationMs:    durationMs,
		TokenUsage:    usage,
		Error:         callErr,
	}
	id, err := m.store.InsertLLMCallDetail(ctx, tx, detail)
	if err != nil {
		return nil, fmt.Errorf("recording: write llm call sidecar: %w", err)
	}
	detail.ID = id
	return detail, nil
}

// Complete marks a recording finished successfully.
func (m *Manager) Complete(ctx context.Context, tx *sql.Tx, recordingID string) error {
	now := time.Now()
	return m.store.UpdateRecordingStatus(ctx, tx, recordingID, model.RecordingCompleted, &now, nil)
}

// Fail marks a recording finished with an error.
func (m *Manager) Fail(ctx context.Context, tx *sql.Tx, recordingID string, cause error) error {
	now := time.Now()
	msg := cause.Error()
	return m.store.UpdateRecordingStatus(ctx, tx, recordingID, model.RecordingFailed, &now, &msg)
}

// AsBaseline tags the recording's final node as a named baseline, so future
// replays can be compared against it by name.
func (m *Manager) AsBaseline(ctx context.Context, tx *sql.Tx, recordingID, tagName string) error {
	rec, err := m.store.GetRecording(ctx, tx, recordingID)
	if err != nil {
		return fmt.Errorf("recording: load recording %s: %w", recordingID, err)
	}
	branch, err := m.store.GetBranchByID(ctx, tx, rec.BranchID)
	if err != nil {
		return fmt.Errorf("recording: load branch %d: %w", rec.BranchID, err)
	}
	if branch.HeadNodeID == nil {
		return fmt.Errorf("recording: branch %d has no nodes to tag", rec.BranchID)
	}

	now := time.Now()
	return m.store.UpsertTag(ctx, tx, &model.Tag{
		UserID:    rec.UserID,
		SessionID: rec.SessionID,
		TagName:   tagName,
		TagType:   model.TagBaseline,
		NodeID:    *branch.HeadNodeID,
		CreatedAt: now,
		UpdatedAt: now,
	})
}
