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
	"time"

	"github.com/a2aproject/a2a-go/a2a"

	"github.com/rohithputha/agentgraph/model"
)

// CreateCheckpoint snapshots the owner's workspace, chains it onto their
// latest checkpoint (if any), and records both the checkpoint row and a
// DAG node for it on the owner's active branch.
func (s *Session) CreateCheckpoint(ctx context.Context, userID, sessionID string, agentMemory model.Document, history []a2a.Message, label *string) (*model.Checkpoint, error) {
	branch, err := s.store.GetActiveBranch(ctx, nil, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session: load active branch: %w", err)
	}
	if branch == nil {
		return nil, fmt.Errorf("session: owner %s/%s has no active branch", userID, sessionID)
	}

	latest, err := s.store.GetLatestCheckpoint(ctx, nil, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session: load latest checkpoint: %w", err)
	}
	parentSHA := ""
	if latest != nil {
		parentSHA = latest.FilesystemRef
	}

	workspace := s.cfg.WorkspaceDir(userID, sessionID)
	sha, err := s.snapshots.CreateCommit(ctx, workspace, parentSHA, fmt.Sprintf("checkpoint for %s/%s", userID, sessionID), nil)
	if err != nil {
		return nil, fmt.Errorf("session: create snapshot: %w", err)
	}

	files, err := s.snapshots.GetSnapshotFiles(sha)
	if err != nil {
		return nil, fmt.Errorf("session: list snapshot files: %w", err)
	}

	ckpt := &model.Checkpoint{
		Hash: sha, FilesystemRef: sha, UserID: userID, SessionID: sessionID,
		AgentMemory: agentMemory, ConversationHistory: history, FilesChanged: files,
		CreatedAt: time.Now(), Label: label,
	}
	if err := s.store.InsertCheckpoint(ctx, nil, ckpt); err != nil {
		return nil, fmt.Errorf("session: persist checkpoint: %w", err)
	}

	node := &model.ExecutionNode{
		UserID: userID, SessionID: sessionID, ParentID: branch.HeadNodeID, BranchID: branch.ID,
		CheckpointSHA: &sha, ActionType: model.ActionCheckpoint,
		Content:     model.NewDocument(map[string]any{"label": label, "files_changed": len(files)}),
		TriggeredBy: model.CallerSystem, Timestamp: time.Now(),
	}
	nodeID, err := s.store.InsertNode(ctx, nil, node)
	if err != nil {
		return nil, fmt.Errorf("session: record checkpoint node: %w", err)
	}
	if err := s.store.UpdateBranchHead(ctx, nil, branch.ID, nodeID); err != nil {
		return nil, fmt.Errorf("session: advance branch head: %w", err)
	}

	s.obs.IncCounter("agentgit_nodes_created_total", string(model.ActionCheckpoint))
	return ckpt, nil
}

// Restore materialises a checkpoint's files back into the owner's
// workspace. It does not rewind the DAG: callers that also want history
// truncated should create a new branch from the checkpoint's node first.
func (s *Session) Restore(ctx context.Context, userID, sessionID, hash string) error {
	workspace := s.cfg.WorkspaceDir(userID, sessionID)
	if err := s.snapshots.RestoreCommit(ctx, hash, workspace); err != nil {
		return fmt.Errorf("session: restore checkpoint %s: %w", hash, err)
	}
	return nil
}

// Peek returns the list of file paths a checkpoint captured, without
// touching the workspace.
func (s *Session) Peek(ctx context.Context, hash string) ([]string, error) {
	return s.snapshots.GetSnapshotFiles(hash)
}

// DiffCheckpoints reports which files changed between two checkpoints.
func (s *Session) DiffCheckpoints(ctx context.Context, a, b string) ([]model.FileDiff, error) {
	return s.snapshots.DiffCommits(a, b)
}
