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

// Package model defines the closed tagged variants and document payload
// shared across the DAG store, tracer, adapter and comparison pipeline.
package model

// EventType is the closed set of events the bus can carry.
type EventType string

const (
	EventUserInput      EventType = "user_input"
	EventLLMCallStart   EventType = "llm_call_start"
	EventLLMCallEnd     EventType = "llm_call_end"
	EventLLMStreamChunk EventType = "llm_stream_chunk"
	EventLLMStreamEnd   EventType = "llm_stream_end"
	EventLLMError       EventType = "llm_error"
	EventToolCallStart  EventType = "tool_call_start"
	EventToolCallEnd    EventType = "tool_call_end"
	EventToolError      EventType = "tool_error"
	EventAgentTurnStart EventType = "agent_turn_start"
	EventAgentTurnEnd   EventType = "agent_turn_end"
	EventAgentThinking  EventType = "agent_thinking"
)

// AllEventTypes enumerates every known event kind, in a fixed order, so
// callers (notably SubscribeAll) can iterate deterministically.
var AllEventTypes = []EventType{
	EventUserInput,
	EventLLMCallStart,
	EventLLMCallEnd,
	EventLLMStreamChunk,
	EventLLMStreamEnd,
	EventLLMError,
	EventToolCallStart,
	EventToolCallEnd,
	EventToolError,
	EventAgentTurnStart,
	EventAgentTurnEnd,
	EventAgentThinking,
}

// ActionType is the closed set of DAG node kinds.
type ActionType string

const (
	ActionUserInput     ActionType = "user_input"
	ActionLLMCall       ActionType = "llm_call"
	ActionLLMResponse   ActionType = "llm_response"
	ActionLLMError      ActionType = "llm_error"
	ActionToolCall      ActionType = "tool_call"
	ActionToolResult    ActionType = "tool_result"
	ActionToolError     ActionType = "tool_error"
	ActionCheckpoint    ActionType = "checkpoint"
	ActionBranchCreate  ActionType = "branch_create"
	ActionBranchSwitch  ActionType = "branch_switch"
	ActionBacktrack     ActionType = "backtrack"
	ActionAgentTurnEnd  ActionType = "agent_turn_end"
)

// CallerType identifies who triggered an action.
type CallerType string

const (
	CallerHumanCLI CallerType = "human_cli"
	CallerHumanUI  CallerType = "human_ui"
	CallerAgent    CallerType = "agent_tool"
	CallerSystem   CallerType = "system"
)

// BranchStatus is the lifecycle state of a branch.
type BranchStatus string

const (
	BranchActive    BranchStatus = "active"
	BranchCompleted BranchStatus = "completed"
	BranchAbandoned BranchStatus = "abandoned"
	BranchMerged    BranchStatus = "merged"
)

// RecordingStatus is the lifecycle state of a recording.
type RecordingStatus string

const (
	RecordingInProgress RecordingStatus = "in_progress"
	RecordingCompleted  RecordingStatus = "completed"
	RecordingFailed     RecordingStatus = "failed"
)

// TagType distinguishes the purpose of a tag.
type TagType string

const (
	TagBaseline  TagType = "baseline"
	TagRelease   TagType = "release"
	TagMilestone TagType = "milestone"
	TagCustom    TagType = "custom"
)

// StepStatus is the per-step verdict produced by the comparator.
type StepStatus string

const (
	StepMatch    StepStatus = "match"
	StepDiverge  StepStatus = "diverge"
	StepAdd      StepStatus = "add"
	StepRemove   StepStatus = "remove"
	StepCascade  StepStatus = "cascade"
)

// MatchType refines a StepMatch verdict.
type MatchType string

const (
	MatchExact    MatchType = "exact"
	MatchSimilar  MatchType = "similar"
	MatchMismatch MatchType = "mismatch"
	MatchUnknown  MatchType = "unknown"
)

// AlignStatus is the raw alignment verdict before similarity scoring.
type AlignStatus string

const (
	AlignMatched AlignStatus = "matched"
	AlignAdded   AlignStatus = "added"
	AlignRemoved AlignStatus = "removed"
)
