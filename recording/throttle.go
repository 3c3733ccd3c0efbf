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

// Package recording owns the lifecycle of a recording session: starting one
// (subject to a per-owner in-progress throttle), writing LLM-call sidecars
// as they happen, and closing it out as completed or failed.
package recording

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rohithputha/agentgraph/dagstore"
)

// Throttle caps how many recordings may be in_progress for one owner at
// once, the same database-backed limit check the rate limiter this is
// grounded on applies per scope/identifier.
type Throttle struct {
	store       *dagstore.Store
	maxInFlight int
}

// NewThrottle builds a Throttle. maxInFlight <= 0 defaults to 1.
func NewThrottle(store *dagstore.Store, maxInFlight int) *Throttle {
	if maxInFlight <= 0 {
		maxInFlight = 1
	}
	return &Throttle{store: store, maxInFlight: maxInFlight}
}

// Allow reports whether the owner may start another recording right now.
func (t *Throttle) Allow(ctx context.Context, tx *sql.Tx, userID, sessionID string) (bool, error) {
	inFlight, err := t.store.ListInProgressRecordings(ctx, tx, userID, sessionID)
	if err != nil {
		return false, fmt.Errorf("recording: check throttle: %w", err)
	}
	return len(inFlight) < t.maxInFlight, nil
}
