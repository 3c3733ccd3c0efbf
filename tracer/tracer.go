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

// Package tracer subscribes to every event kind on the bus and turns each
// into a DAG node, advancing the active branch's head as it goes. It holds
// no per-session cursor: the active branch always comes from the store, so
// the tracer is stateless and safe to share across concurrent owners.
package tracer

import (
	"context"
	"database/sql"
	"sync/atomic"

	"github.com/rohithputha/agentgraph/dagstore"
	"github.com/rohithputha/agentgraph/eventbus"
	"github.com/rohithputha/agentgraph/internal/obslog"
	"github.com/rohithputha/agentgraph/model"
	"github.com/rohithputha/agentgraph/observability"
)

// Tracer turns bus events into DAG nodes.
type Tracer struct {
	store *dagstore.Store
	obs   *observability.Tracer
	turn  atomic.Int64
}

// New builds a Tracer. Call Attach to register it on a bus.
func New(store *dagstore.Store, obs *observability.Tracer) *Tracer {
	if obs == nil {
		obs = observability.Noop()
	}
	return &Tracer{store: store, obs: obs}
}

// Attach subscribes the tracer to every known event kind on bus. Handler
// selection is a switch over model.EventType; the compiler does not check
// it for exhaustiveness, and a kind with no matching case reaches the
// default branch, which logs a warning and ignores the event.
func (t *Tracer) Attach(bus *eventbus.Bus) {
	for _, kind := range model.AllEventTypes {
		kind := kind
		bus.Subscribe(kind, func(ctx context.Context, tx *sql.Tx, evt model.Event) error {
			return t.handle(ctx, tx, kind, evt)
		})
	}
}

func (t *Tracer) handle(ctx context.Context, tx *sql.Tx, kind model.EventType, evt model.Event) error {
	switch kind {
	case model.EventAgentTurnStart:
		t.turn.Add(1)
		return nil
	case model.EventUserInput:
		return t.record(ctx, tx, evt, model.ActionUserInput, evt.Content)
	case model.EventLLMCallStart:
		return t.record(ctx, tx, evt, model.ActionLLMCall, evt.Content)
	case model.EventLLMCallEnd:
		return t.record(ctx, tx, evt, model.ActionLLMResponse, evt.Content)
	case model.EventLLMError:
		return t.record(ctx, tx, evt, model.ActionLLMError, evt.Content)
	case model.EventToolCallStart:
		return t.record(ctx, tx, evt, model.ActionToolCall, evt.Content)
	case model.EventToolCallEnd:
		return t.record(ctx, tx, evt, model.ActionToolResult, evt.Content)
	case model.EventToolError:
		return t.record(ctx, tx, evt, model.ActionToolError, evt.Content)
	case model.EventAgentTurnEnd:
		return t.record(ctx, tx, evt, model.ActionAgentTurnEnd, evt.Content)
	case model.EventLLMStreamChunk:
		// Stream chunks are deliberately not recorded as nodes; only the
		// stream's end produces one, via EventLLMStreamEnd below.
		return nil
	case model.EventLLMStreamEnd:
		return t.record(ctx, tx, evt, model.ActionLLMResponse, evt.Content)
	case model.EventAgentThinking:
		return nil
	default:
		obslog.Default().Warn("tracer: unhandled event kind", "kind", string(kind))
		return nil
	}
}

// record inserts a node for evt under the owner's active branch, or does
// nothing if the owner has no active branch yet.
func (t *Tracer) record(ctx context.Context, tx *sql.Tx, evt model.Event, action model.ActionType, content model.Document) error {
	ctx, span := t.obs.StartSpan(ctx, "tracer.record_node",
		observability.Attr("action_type", string(action)),
		observability.Attr("owner.user_id", evt.UserID),
		observability.Attr("owner.session_id", evt.SessionID),
	)
	defer span.End()

	branch, err := t.store.GetActiveBranch(ctx, tx, evt.UserID, evt.SessionID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if branch == nil {
		return nil
	}

	callerCtx := evt.CallerContext
	if callerCtx == nil {
		callerCtx = model.Document{}
	}
	callerCtx["turn"] = t.turn.Load()

	node := &model.ExecutionNode{
		UserID:        evt.UserID,
		SessionID:     evt.SessionID,
		ParentID:      branch.HeadNodeID,
		BranchID:      branch.ID,
		ActionType:    action,
		Content:       content,
		TriggeredBy:   evt.TriggeredBy,
		CallerContext: callerCtx,
		Timestamp:     evt.Timestamp,
		DurationMs:    evt.DurationMs,
	}
	if evt.TokenUsage != nil {
		total := evt.TokenUsage.TotalTokens
		node.TokenCount = &total
	}

	id, err := t.store.InsertNode(ctx, tx, node)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if err := t.store.UpdateBranchHead(ctx, tx, branch.ID, id); err != nil {
		span.RecordError(err)
		return err
	}
	t.obs.IncCounter("agentgit_nodes_created_total", string(action))
	return nil
}
