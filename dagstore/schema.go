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

// Package dagstore persists execution nodes, branches, checkpoints, tags
// and the recording/comparison sidecar tables on a single *sql.DB,
// dialect-selected at construction the way the session and rate-limit
// stores in this lineage are.
package dagstore

const createNodesSchemaSQL = `
CREATE TABLE IF NOT EXISTS nodes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id VARCHAR(255) NOT NULL,
    session_id VARCHAR(255) NOT NULL,
    parent_id BIGINT,
    branch_id BIGINT NOT NULL,
    checkpoint_sha VARCHAR(64),
    action_type VARCHAR(50) NOT NULL,
    content_json TEXT,
    triggered_by VARCHAR(50) NOT NULL,
    caller_context_json TEXT,
    state_hash VARCHAR(64),
    duration_ms BIGINT,
    token_count BIGINT,
    created_at TIMESTAMP NOT NULL
)`

const createNodesIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_nodes_owner ON nodes(user_id, session_id)`

const createNodesBranchIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_nodes_branch ON nodes(branch_id)`

const createBranchesSchemaSQL = `
CREATE TABLE IF NOT EXISTS branches (
    branch_id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id VARCHAR(255) NOT NULL,
    session_id VARCHAR(255) NOT NULL,
    name VARCHAR(255) NOT NULL,
    head_node_id BIGINT,
    base_node_id BIGINT,
    status VARCHAR(50) NOT NULL,
    intent TEXT,
    status_reason TEXT,
    created_by VARCHAR(255),
    created_at TIMESTAMP NOT NULL,
    tokens_used BIGINT NOT NULL DEFAULT 0,
    time_elapsed_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
    UNIQUE (user_id, session_id, name)
)`

const createBranchesIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_branches_owner ON branches(user_id, session_id)`

const createCheckpointsSchemaSQL = `
CREATE TABLE IF NOT EXISTS checkpoints (
    hash VARCHAR(64) PRIMARY KEY,
    filesystem_ref VARCHAR(64) NOT NULL,
    user_id VARCHAR(255) NOT NULL,
    session_id VARCHAR(255) NOT NULL,
    agent_memory_json TEXT,
    conversation_history_json TEXT,
    files_changed_json TEXT,
    compressed BOOLEAN NOT NULL DEFAULT FALSE,
    size_bytes BIGINT NOT NULL DEFAULT 0,
    label VARCHAR(255),
    created_at TIMESTAMP NOT NULL
)`

const createCheckpointsIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_checkpoints_owner ON checkpoints(user_id, session_id)`

const createTagsSchemaSQL = `
CREATE TABLE IF NOT EXISTS at_tags (
    user_id VARCHAR(255) NOT NULL,
    session_id VARCHAR(255) NOT NULL,
    tag_name VARCHAR(255) NOT NULL,
    tag_type VARCHAR(50) NOT NULL,
    node_id BIGINT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (user_id, session_id, tag_name)
)`

const createRecordingsSchemaSQL = `
CREATE TABLE IF NOT EXISTS at_recordings (
    recording_id VARCHAR(64) PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    user_id VARCHAR(255) NOT NULL,
    session_id VARCHAR(255) NOT NULL,
    branch_id BIGINT NOT NULL,
    status VARCHAR(50) NOT NULL,
    started_at TIMESTAMP NOT NULL,
    completed_at TIMESTAMP,
    step_count INTEGER NOT NULL DEFAULT 0,
    error TEXT,
    config_json TEXT,
    metadata_json TEXT
)`

const createRecordingsIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_recordings_owner ON at_recordings(user_id, session_id)`

const createLLMCallDetailsSchemaSQL = `
CREATE TABLE IF NOT EXISTS at_llm_call_details (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    node_id BIGINT NOT NULL,
    recording_id VARCHAR(64) NOT NULL,
    step_index INTEGER NOT NULL,
    provider VARCHAR(100),
    method VARCHAR(100),
    model VARCHAR(255),
    fingerprint VARCHAR(32) NOT NULL,
    request_params_json TEXT,
    response_data_json TEXT,
    is_streaming BOOLEAN NOT NULL DEFAULT FALSE,
    stream_id VARCHAR(64),
    duration_ms BIGINT,
    prompt_tokens BIGINT,
    completion_tokens BIGINT,
    total_tokens BIGINT,
    error TEXT,
    metadata_json TEXT
)`

const createLLMCallDetailsIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_llm_call_details_recording ON at_llm_call_details(recording_id, step_index)`

const createComparisonsSchemaSQL = `
CREATE TABLE IF NOT EXISTS at_comparisons (
    comparison_id VARCHAR(64) PRIMARY KEY,
    baseline_id VARCHAR(64) NOT NULL,
    replay_id VARCHAR(64) NOT NULL,
    created_at TIMESTAMP NOT NULL,
    total INTEGER NOT NULL,
    matched INTEGER NOT NULL,
    diverged INTEGER NOT NULL,
    added INTEGER NOT NULL,
    removed INTEGER NOT NULL,
    cascade_count INTEGER NOT NULL,
    root_cause_index INTEGER,
    overall_pass BOOLEAN NOT NULL
)`

const createStepComparisonsSchemaSQL = `
CREATE TABLE IF NOT EXISTS at_step_comparisons (
    comparison_id VARCHAR(64) NOT NULL,
    step_index INTEGER NOT NULL,
    status VARCHAR(50) NOT NULL,
    match_type VARCHAR(50),
    similarity_score DOUBLE PRECISION NOT NULL DEFAULT 0,
    diff_summary TEXT,
    baseline_step_id BIGINT,
    replay_step_id BIGINT,
    PRIMARY KEY (comparison_id, step_index)
)`

var schemaStatements = []string{
	createNodesSchemaSQL,
	createNodesIndexSQL,
	createNodesBranchIndexSQL,
	createBranchesSchemaSQL,
	createBranchesIndexSQL,
	createCheckpointsSchemaSQL,
	createCheckpointsIndexSQL,
	createTagsSchemaSQL,
	createRecordingsSchemaSQL,
	createRecordingsIndexSQL,
	createLLMCallDetailsSchemaSQL,
	createLLMCallDetailsIndexSQL,
	createComparisonsSchemaSQL,
	createStepComparisonsSchemaSQL,
}
