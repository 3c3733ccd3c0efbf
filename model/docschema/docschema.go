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

// Package docschema generates JSON Schema for the entity types stored as
// model.Document payloads, so the read-only HTTP surface can publish a
// machine-readable shape for each endpoint's response without hand
// maintaining one.
package docschema

import (
	"reflect"
	"sync"

	"github.com/invopop/jsonschema"

	"github.com/rohithputha/agentgraph/model"
)

var (
	reflector = &jsonschema.Reflector{ExpandedStruct: true, DoNotReference: true}

	mu    sync.Mutex
	cache = map[reflect.Type]*jsonschema.Schema{}
)

// For returns the JSON Schema for v's type, memoised by type since
// reflection over the same struct always produces the same schema.
func For(v any) *jsonschema.Schema {
	t := reflect.TypeOf(v)

	mu.Lock()
	defer mu.Unlock()
	if s, ok := cache[t]; ok {
		return s
	}
	s := reflector.Reflect(v)
	cache[t] = s
	return s
}

// ExecutionNodeSchema is the published shape of model.ExecutionNode.
func ExecutionNodeSchema() *jsonschema.Schema { return For(&model.ExecutionNode{}) }

// BranchSchema is the published shape of model.Branch.
func BranchSchema() *jsonschema.Schema { return For(&model.Branch{}) }

// CheckpointSchema is the published shape of model.Checkpoint.
func CheckpointSchema() *jsonschema.Schema { return For(&model.Checkpoint{}) }

// ComparisonResultSchema is the published shape of model.ComparisonResult.
func ComparisonResultSchema() *jsonschema.Schema { return For(&model.ComparisonResult{}) }
