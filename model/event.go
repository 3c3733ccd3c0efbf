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

import "time"

// Event is the unit the bus publishes: one occurrence of an EventType for
// one owner, carrying an opaque payload the tracer and recording session
// interpret according to Type.
type Event struct {
	Type          EventType
	UserID        string
	SessionID     string
	RunID         string
	ParentRunID   string
	TriggeredBy   CallerType
	Content       Document
	CallerContext Document
	Timestamp     time.Time

	// Populated on llm_call_end / llm_error by the framework adapter.
	Provider      string
	Method        string
	Model         string
	Fingerprint   string
	RequestParams Document
	ResponseData  Document
	DurationMs    *int64
	TokenUsage    *TokenUsage
	ErrorMessage  string
}
