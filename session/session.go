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

// Package session is the public façade: it wires the event bus, DAG store,
// tracer, snapshot store, recording manager and comparator into the
// branch/checkpoint/compare operations a caller actually wants, so nothing
// outside this package needs to know how those pieces fit together.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rohithputha/agentgraph/adapter"
	"github.com/rohithputha/agentgraph/compare"
	"github.com/rohithputha/agentgraph/compare/embed"
	"github.com/rohithputha/agentgraph/config"
	"github.com/rohithputha/agentgraph/dagstore"
	"github.com/rohithputha/agentgraph/eventbus"
	"github.com/rohithputha/agentgraph/model"
	"github.com/rohithputha/agentgraph/observability"
	"github.com/rohithputha/agentgraph/recording"
	"github.com/rohithputha/agentgraph/snapshot"
	"github.com/rohithputha/agentgraph/tracer"
)

// Session is the entry point embedding applications construct once per
// process and share across owners.
type Session struct {
	cfg        *config.Config
	obs        *observability.Tracer
	bus        *eventbus.Bus
	store      *dagstore.Store
	snapshots  *snapshot.Store
	recordings *recording.Manager
	comparator *compare.Comparator
	Adapter    *adapter.Adapter
}

// Open wires every component from cfg and returns a ready Session. The
// caller owns db's lifetime (Session never closes it).
func Open(ctx context.Context, cfg *config.Config, db *sql.DB) (*Session, error) {
	cfg.SetDefaults()

	obs, err := observability.NewTracer(ctx, &observability.TracingConfig{
		Enabled: cfg.Tracing.Enabled, Exporter: cfg.Tracing.Exporter,
		Endpoint: cfg.Tracing.Endpoint, SamplingRate: cfg.Tracing.SamplingRate,
		ServiceName: "agentgraph",
	})
	if err != nil {
		return nil, fmt.Errorf("session: start observability: %w", err)
	}

	store, err := dagstore.Open(db, cfg.Storage.Dialect)
	if err != nil {
		return nil, fmt.Errorf("session: open dag store: %w", err)
	}

	snapStore, err := snapshot.Open(cfg.SnapshotsDir(), obs)
	if err != nil {
		return nil, fmt.Errorf("session: open snapshot store: %w", err)
	}

	bus := eventbus.New(store.DB(), obs)
	tr := tracer.New(store, obs)
	tr.Attach(bus)

	throttle := recording.NewThrottle(store, cfg.Recording.MaxInProgressPerOwner)
	recMgr := recording.New(store, throttle)

	similarity, err := embed.NewFromConfig(embed.Config{
		Provider: cfg.Comparator.EmbedderProvider,
		Endpoint: cfg.Comparator.EmbedderEndpoint,
		APIKey:   cfg.Comparator.EmbedderAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("session: build similarity backend: %w", err)
	}
	comparator := compare.New(similarity, cfg.Comparator.SimilarityThreshold, cfg.Comparator.IgnoreFields...)

	return &Session{
		cfg:        cfg,
		obs:        obs,
		bus:        bus,
		store:      store,
		snapshots:  snapStore,
		recordings: recMgr,
		comparator: comparator,
		Adapter:    adapter.New(bus),
	}, nil
}

// Close flushes observability. The caller's *sql.DB is left open.
func (s *Session) Close(ctx context.Context) error {
	return s.obs.Shutdown(ctx)
}

// On subscribes h to kind, for callers that want to observe traced events
// themselves (e.g. a UI pushing live updates).
func (s *Session) On(kind model.EventType, h eventbus.Handler) {
	s.bus.Subscribe(kind, h)
}

// CreateBranch starts a new active branch for an owner, rooted at no
// parent node.
func (s *Session) CreateBranch(ctx context.Context, userID, sessionID, name, intent, createdBy string) (*model.Branch, error) {
	b := &model.Branch{
		UserID: userID, SessionID: sessionID, Name: name, Status: model.BranchActive,
		Intent: intent, CreatedBy: createdBy, CreatedAt: time.Now(),
	}
	id, err := s.store.InsertBranch(ctx, nil, b)
	if err != nil {
		return nil, fmt.Errorf("session: create branch: %w", err)
	}
	b.ID = id
	return b, nil
}

// CreateBranchFrom creates a new branch whose base is the given branch's
// current head, so later comparisons know where the two diverged.
func (s *Session) CreateBranchFrom(ctx context.Context, userID, sessionID, fromBranch, newName, intent, createdBy string) (*model.Branch, error) {
	from, err := s.store.GetBranch(ctx, nil, userID, sessionID, fromBranch)
	if err != nil {
		return nil, fmt.Errorf("session: load source branch %s: %w", fromBranch, err)
	}
	b := &model.Branch{
		UserID: userID, SessionID: sessionID, Name: newName, Status: model.BranchActive,
		HeadNodeID: from.HeadNodeID, BaseNodeID: from.HeadNodeID,
		Intent: intent, CreatedBy: createdBy, CreatedAt: time.Now(),
	}
	id, err := s.store.InsertBranch(ctx, nil, b)
	if err != nil {
		return nil, fmt.Errorf("session: create branch from %s: %w", fromBranch, err)
	}
	b.ID = id
	return b, nil
}

// SwitchBranch marks name active and abandons whichever branch was
// previously active for the owner (a single branch is "active" at a time;
// others stay around for comparison and history).
func (s *Session) SwitchBranch(ctx context.Context, userID, sessionID, name string) (*model.Branch, error) {
	current, err := s.store.GetActiveBranch(ctx, nil, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session: load active branch: %w", err)
	}
	target, err := s.store.GetBranch(ctx, nil, userID, sessionID, name)
	if err != nil {
		return nil, fmt.Errorf("session: load branch %s: %w", name, err)
	}

	if current != nil && current.ID != target.ID {
		if err := s.store.UpdateBranchStatus(ctx, nil, current.ID, model.BranchAbandoned, nil); err != nil {
			return nil, fmt.Errorf("session: abandon previous branch: %w", err)
		}
	}
	if err := s.store.UpdateBranchStatus(ctx, nil, target.ID, model.BranchActive, nil); err != nil {
		return nil, fmt.Errorf("session: activate branch %s: %w", name, err)
	}
	target.Status = model.BranchActive
	return target, nil
}

// ListBranches returns every branch an owner has, newest first.
func (s *Session) ListBranches(ctx context.Context, userID, sessionID string) ([]model.Branch, error) {
	return s.store.ListBranches(ctx, nil, userID, sessionID)
}

// GetBranchNodes returns every node on a branch, oldest first.
func (s *Session) GetBranchNodes(ctx context.Context, branchID int64) ([]model.ExecutionNode, error) {
	return s.store.GetBranchNodes(ctx, nil, branchID)
}

// GetHistory returns the node chain from root to nodeID.
func (s *Session) GetHistory(ctx context.Context, nodeID int64) ([]model.ExecutionNode, error) {
	return s.store.GetPathToRoot(ctx, nil, nodeID)
}

// EmitUserInput is a thin pass-through to the adapter, kept on Session so
// callers that only need the simplest path don't need a separate handle.
func (s *Session) EmitUserInput(ctx context.Context, userID, sessionID, runID string, caller model.CallerType, content model.Document) error {
	return s.Adapter.OnUserInput(ctx, userID, sessionID, runID, caller, content)
}
