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

// Package eventbus is a process-local, transactional publish/subscribe
// registry. Subscribers run synchronously, in registration order, inside
// one atomic unit bound to the persistence connection passed at
// construction; any subscriber error rolls the whole event back.
package eventbus

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/rohithputha/agentgraph/model"
	"github.com/rohithputha/agentgraph/observability"
)

// Handler processes one published event. It receives the *sql.Tx the bus
// opened for this publish (nil if the bus was built without a *sql.DB), so
// storage-backed subscribers (tracer, recording session) can write through
// the same transaction without owning the commit boundary themselves.
type Handler func(ctx context.Context, tx *sql.Tx, evt model.Event) error

// Bus is safe for concurrent use by independent publishers; a single
// publish call is itself serialised by the underlying transaction.
type Bus struct {
	db  *sql.DB
	obs *observability.Tracer

	mu          sync.Mutex
	subscribers map[model.EventType][]Handler
}

// New builds a Bus. db may be nil, in which case Publish invokes handlers
// without a surrounding transaction (handlers then receive a nil *sql.Tx).
func New(db *sql.DB, obs *observability.Tracer) *Bus {
	return &Bus{
		db:          db,
		obs:         obs,
		subscribers: make(map[model.EventType][]Handler),
	}
}

// Subscribe appends h to the ordered list of handlers for kind.
func (b *Bus) Subscribe(kind model.EventType, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[kind] = append(b.subscribers[kind], h)
}

// SubscribeAll appends h to every known event kind, in model.AllEventTypes
// order, so relative registration order across kinds is deterministic.
func (b *Bus) SubscribeAll(h Handler) {
	for _, kind := range model.AllEventTypes {
		b.Subscribe(kind, h)
	}
}

// Publish runs every subscriber of evt.Type, in registration order, inside
// one transaction. If every subscriber returns nil, the transaction
// commits; otherwise it rolls back and the first error is returned.
func (b *Bus) Publish(ctx context.Context, kind model.EventType, evt model.Event) error {
	ctx, span := b.obs.StartSpan(ctx, "eventbus.publish",
		observability.Attr("event.kind", string(kind)),
		observability.Attr("owner.user_id", evt.UserID),
		observability.Attr("owner.session_id", evt.SessionID),
	)
	defer span.End()

	stop := b.obs.StartTimer("agentgit_publish_duration_seconds")
	defer stop()

	b.mu.Lock()
	handlers := append([]Handler(nil), b.subscribers[kind]...)
	b.mu.Unlock()

	if len(handlers) == 0 {
		return nil
	}

	if b.db == nil {
		for _, h := range handlers {
			if err := h(ctx, nil, evt); err != nil {
				span.RecordError(err)
				return err
			}
		}
		return nil
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("eventbus: begin tx: %w", err)
	}

	for _, h := range handlers {
		if err := h(ctx, tx, evt); err != nil {
			_ = tx.Rollback()
			b.obs.IncCounter("agentgit_publish_rollbacks_total")
			span.RecordError(err)
			return fmt.Errorf("eventbus: subscriber for %s failed: %w", kind, err)
		}
	}

	if err := tx.Commit(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("eventbus: commit: %w", err)
	}
	return nil
}
