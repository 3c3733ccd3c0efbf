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

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/mitchellh/mapstructure"
)

// Document is an opaque, serialisable structured payload: content,
// caller context, request params and response data are all stored this
// way so the DAG store never needs to know an action's domain shape.
type Document map[string]any

// NewDocument wraps an already-decoded map. A nil map is normalised to
// an empty, non-nil Document so callers never have to nil-check it.
func NewDocument(v map[string]any) Document {
	if v == nil {
		return Document{}
	}
	return Document(v)
}

// DocumentFromJSON unmarshals a JSON object into a Document.
func DocumentFromJSON(raw []byte) (Document, error) {
	if len(raw) == 0 {
		return Document{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return NewDocument(m), nil
}

// MarshalJSON is the storage-facing serialisation used by the DAG store's
// *_json columns, mirroring the session store's ContentJSON/StateDeltaJSON
// convention of keeping structured payloads as opaque TEXT.
func (d Document) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(d))
}

// CanonicalJSON renders the document with sorted keys and no insignificant
// whitespace, for use anywhere byte-stability matters (checkpoint hashing,
// exact-match comparison).
func (d Document) CanonicalJSON() ([]byte, error) {
	return canonicalJSON(map[string]any(d))
}

func canonicalJSON(v any) ([]byte, error) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := canonicalJSON(val[k])
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := canonicalJSON(item)
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	default:
		return json.Marshal(val)
	}
}

// Decode projects the document into a typed view struct via mapstructure,
// the same way the adapter normalises opaque tool/message payloads before
// handing them to typed call sites.
func (d Document) Decode(out any) error {
	return mapstructure.Decode(map[string]any(d), out)
}

// Get performs a dotted-path lookup ("invocation_params.tools"), returning
// (nil, false) if any segment is missing or not a map.
func (d Document) Get(path string) (any, bool) {
	cur := any(map[string]any(d))
	for _, seg := range splitPath(path) {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := m[seg]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

func splitPath(path string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			parts = append(parts, path[start:i])
			start = i + 1
		}
	}
	parts = append(parts, path[start:])
	return parts
}
