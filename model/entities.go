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

package model

import (
	"time"

	"github.com/a2aproject/a2a-go/a2a"
)

// ExecutionNode is one recorded agent action in the DAG.
type ExecutionNode struct {
	ID            int64
	UserID        string
	SessionID     string
	ParentID      *int64
	BranchID      int64
	CheckpointSHA *string
	ActionType    ActionType
	Content       Document
	TriggeredBy   CallerType
	CallerContext Document
	StateHash     *string
	Timestamp     time.Time
	DurationMs    *int64
	TokenCount    *int64
}

// Branch is a named, advancing pointer into the DAG.
type Branch struct {
	ID                 int64
	UserID             string
	SessionID          string
	Name               string
	HeadNodeID         *int64
	BaseNodeID         *int64
	Status             BranchStatus
	Intent             string
	StatusReason       *string
	CreatedBy          string
	CreatedAt          time.Time
	TokensUsed         int64
	TimeElapsedSeconds float64
}

// Checkpoint pairs a DAG node with a content-addressed filesystem snapshot.
type Checkpoint struct {
	Hash                string
	FilesystemRef       string
	UserID              string
	SessionID           string
	AgentMemory         Document
	ConversationHistory []a2a.Message
	FilesChanged        []string
	CreatedAt           time.Time
	Compressed          bool
	SizeBytes           int64
	Label               *string
}

// Recording is a named branch collecting LLM-call sidecars during a test run.
type Recording struct {
	RecordingID string
	Name        string
	UserID      string
	SessionID   string
	BranchID    int64
	Status      RecordingStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	StepCount   int
	Error       *string
	Config      Document
	Metadata    Document
}

// TokenUsage mirrors what providers (and the tokencount fallback) report.
type TokenUsage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// LLMCallDetail is the sidecar row attached to one LLM_CALL_END node while
// a recording is active.
type LLMCallDetail struct {
	ID            int64
	NodeID        int64
	RecordingID   string
	StepIndex     int
	Provider      string
	Method        string
	Model         string
	Fingerprint   string
	RequestParams Document
	ResponseData  Document
	IsStreaming   bool
	StreamID      *string
	DurationMs    *int64
	TokenUsage    *TokenUsage
	Error         *string
	Metadata      Document
}

// Tag names a specific node for later reference (baselines, releases,
// milestones, or operator-chosen labels).
type Tag struct {
	UserID    string
	SessionID string
	TagName   string
	TagType   TagType
	NodeID    int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StepComparison is the per-step verdict of comparing two recordings.
type StepComparison struct {
	Index           int
	Status          StepStatus
	MatchType       *MatchType
	SimilarityScore float64
	DiffSummary     *string
	BaselineStep    *LLMCallDetail
	ReplayStep      *LLMCallDetail
}

// ComparisonResult is the full output of comparing a baseline recording
// against a replay recording (or two live branches via ComparePaths).
type ComparisonResult struct {
	ComparisonID   string
	BaselineID     string
	ReplayID       string
	CreatedAt      time.Time
	Total          int
	Matched        int
	Diverged       int
	Added          int
	Removed        int
	CascadeCount   int
	RootCauseIndex *int
	OverallPass    bool
	Steps          []StepComparison
}

// FileDiff describes one path's change between two snapshot commits.
type FileDiff struct {
	Path   string
	Change string // "added", "removed", "changed"
}
