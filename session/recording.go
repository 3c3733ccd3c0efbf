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

package session

import (
	"context"
	"fmt"

	"github.com/rohithputha/agentgraph/model"
)

// StartRecording begins a new recording, subject to the configured
// per-owner in-flight limit.
func (s *Session) StartRecording(ctx context.Context, userID, sessionID, name string, cfg model.Document) (*model.Recording, error) {
	rec, err := s.recordings.Start(ctx, nil, userID, sessionID, name, cfg)
	if err != nil {
		return nil, fmt.Errorf("session: start recording: %w", err)
	}
	return rec, nil
}

// RecordLLMCall writes one LLM-call sidecar against an in-progress
// recording.
func (s *Session) RecordLLMCall(ctx context.Context, recordingID string, nodeID int64, provider, method, modelName string, req, resp model.Document, durationMs *int64, usage *model.TokenUsage, callErr *string) (*model.LLMCallDetail, error) {
	return s.recordings.RecordCall(ctx, nil, recordingID, nodeID, provider, method, modelName, req, resp, durationMs, usage, callErr)
}

// CompleteRecording marks a recording finished successfully.
func (s *Session) CompleteRecording(ctx context.Context, recordingID string) error {
	return s.recordings.Complete(ctx, nil, recordingID)
}

// FailRecording marks a recording finished with an error.
func (s *Session) FailRecording(ctx context.Context, recordingID string, cause error) error {
	return s.recordings.Fail(ctx, nil, recordingID, cause)
}

// SetBaseline tags a recording's final node as a named baseline for future
// replay comparisons.
func (s *Session) SetBaseline(ctx context.Context, recordingID, tagName string) error {
	return s.recordings.AsBaseline(ctx, nil, recordingID, tagName)
}
