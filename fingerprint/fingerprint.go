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

// Package fingerprint computes a deterministic structural signature for an
// LLM call, used to align baseline and replay steps before they are scored
// for similarity.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/rohithputha/agentgraph/model"
)

const length = 16

// Compute derives a structural fingerprint from the shape of a call: its
// provider, method, model, the ordered sequence of message roles, and the
// ordered sequence of tool names it carries. It deliberately ignores values
// that vary run to run (timestamps, free-text arguments, streaming ids) so
// that two calls with the same shape but different content still align, but
// preserves order for roles and tools so reordering either one is a
// different fingerprint.
func Compute(provider, method, modelName string, params model.Document) string {
	roles := extractMessageRoles(params)
	if roles == nil {
		roles = []string{}
	}
	tools, _ := extractToolNames(params)
	if tools == nil {
		tools = []string{}
	}
	rolesJSON, _ := json.Marshal(roles)
	toolsJSON, _ := json.Marshal(tools)
	input := strings.Join([]string{provider, method, modelName, string(rolesJSON), string(toolsJSON)}, "|")
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:length]
}

// extractMessageRoles pulls the ordered "role" field out of a "messages"
// array, preserving the original order so two calls that send the same
// roles in a different order fingerprint differently.
func extractMessageRoles(d model.Document) []string {
	raw, ok := d.Get("messages")
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	roles := make([]string, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if role, ok := m["role"].(string); ok {
			roles = append(roles, role)
		}
	}
	return roles
}

// extractToolNames pulls a "tools", "invocation_params.tools" or legacy
// top-level "functions" array out of a request document; each entry is
// either {"name": ...} (the shape the mcp-go-based tool adapter produces)
// or {"function": {"name": ...}}. Order is preserved as given, not
// sorted, so the fingerprint stays sensitive to tool ordering.
func extractToolNames(d model.Document) ([]string, bool) {
	raw, ok := d.Get("tools")
	if !ok {
		raw, ok = d.Get("invocation_params.tools")
	}
	if !ok {
		raw, ok = d.Get("functions")
	}
	if !ok {
		return nil, false
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, false
	}
	names := make([]string, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if fn, ok := m["function"].(map[string]any); ok {
			m = fn
		}
		if name, ok := m["name"].(string); ok {
			names = append(names, name)
		}
	}
	return names, true
}

// ResponseHash returns a strong content hash of a call's canonical
// response document, used for exact-match scoring once two steps have
// already been aligned by Compute's structural fingerprint. Request params
// play no role here: they are free-text/parameter content the fingerprint
// itself deliberately ignores, so two aligned calls with identical
// responses but incidentally different request params still count exact.
func ResponseHash(response model.Document) (string, error) {
	h := sha256.New()
	respBytes, err := response.CanonicalJSON()
	if err != nil {
		return "", err
	}
	h.Write(respBytes)
	return hex.EncodeToString(h.Sum(nil)), nil
}
