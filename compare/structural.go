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

package compare

import (
	"fmt"
	"sort"

	"github.com/rohithputha/agentgraph/model"
)

// structuralScore compares two response documents by shape rather than by
// content: it flattens each to the set of dotted/indexed key paths it
// contains, scores the Jaccard index of those sets, then on the
// intersection checks what fraction of keys hold the same value-type on
// both sides. ignoreFields names keys, matched at any depth by their own
// name, to drop before scoring (volatile fields like request ids or timestamps).
func structuralScore(a, b model.Document, ignoreFields map[string]bool) float64 {
	pathsA := flattenKeyPaths(map[string]any(a), "", ignoreFields)
	pathsB := flattenKeyPaths(map[string]any(b), "", ignoreFields)

	k := jaccard(pathsA, pathsB)

	shared := 0
	typeMatches := 0
	for path, typeA := range pathsA {
		typeB, ok := pathsB[path]
		if !ok {
			continue
		}
		shared++
		if typeA == typeB {
			typeMatches++
		}
	}
	t := 1.0
	if shared > 0 {
		t = float64(typeMatches) / float64(shared)
	}

	return 0.6*k + 0.4*t
}

// flattenKeyPaths walks a decoded JSON value and records, for every leaf
// reachable from it, a dotted/indexed path to a Go type name describing
// the leaf's value ("string", "float64", "bool", "<nil>", ...).
func flattenKeyPaths(v any, prefix string, ignoreFields map[string]bool) map[string]string {
	out := map[string]string{}
	collectKeyPaths(v, prefix, ignoreFields, out)
	return out
}

func collectKeyPaths(v any, prefix string, ignoreFields map[string]bool, out map[string]string) {
	switch val := v.(type) {
	case map[string]any:
		for key, child := range val {
			if ignoreFields[key] {
				continue
			}
			path := key
			if prefix != "" {
				path = prefix + "." + key
			}
			collectKeyPaths(child, path, ignoreFields, out)
		}
	case []any:
		for i, child := range val {
			path := fmt.Sprintf("%s[%d]", prefix, i)
			collectKeyPaths(child, path, ignoreFields, out)
		}
	default:
		if prefix == "" {
			return
		}
		out[prefix] = fmt.Sprintf("%T", val)
	}
}

func jaccard(a, b map[string]string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	union := map[string]bool{}
	intersection := 0
	for k := range a {
		union[k] = true
	}
	for k := range b {
		if _, ok := a[k]; ok {
			intersection++
		}
		union[k] = true
	}
	if len(union) == 0 {
		return 1.0
	}
	return float64(intersection) / float64(len(union))
}

// sortedPaths is used only by tests that want deterministic output when
// inspecting a flattened key-path set.
func sortedPaths(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
